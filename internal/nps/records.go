package nps

// Image is one image descriptor attached to a park
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
	Title   string `json:"title,omitempty"`
	Credit  string `json:"credit,omitempty"`
}

// Park represents a park record from the /parks endpoint
type Park struct {
	ID          string  `json:"id"`
	ParkCode    string  `json:"parkCode,omitempty"`
	FullName    string  `json:"fullName"`
	Description string  `json:"description"`
	States      string  `json:"states,omitempty"`
	URL         string  `json:"url,omitempty"`
	Images      []Image `json:"images"`
}

// FirstImage returns the park's first image, or nil if it has none
func (p *Park) FirstImage() *Image {
	if len(p.Images) == 0 {
		return nil
	}
	return &p.Images[0]
}

// Campground represents a campground record from the /campgrounds endpoint
type Campground struct {
	ID          string `json:"id"`
	ParkCode    string `json:"parkCode,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

// parksResponse is the /parks response envelope.
// Data stays nil when the key is missing or null.
type parksResponse struct {
	Total string  `json:"total"`
	Data  *[]Park `json:"data"`
}

// campgroundsResponse is the /campgrounds response envelope
type campgroundsResponse struct {
	Total string        `json:"total"`
	Data  *[]Campground `json:"data"`
}
