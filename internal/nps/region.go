package nps

import "strings"

// NormalizeRegion trims whitespace and upper-cases a state code.
// The result is not checked against any list of states; "ca " becomes "CA",
// "" stays "" and is still sent to the API.
func NormalizeRegion(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
