package view

import "github.com/pfrederiksen/parkfinder/internal/nps"

// Kind identifies which list a row belongs to
type Kind string

const (
	KindPark       Kind = "park"
	KindCampground Kind = "campground"
)

// ParseKind converts "park" or "campground" into a Kind
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindPark, KindCampground:
		return Kind(s), true
	}
	return "", false
}

// Status is the display state of a section
type Status string

const (
	StatusIdle   Status = "idle"
	StatusOK     Status = "ok"
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// Static section messages
const (
	MessageNoParks           = "No parks found for this state."
	MessageNoCampgrounds     = "No campgrounds found for this state."
	MessageParksFailed       = "Failed to fetch parks. Please try again later."
	MessageCampgroundsFailed = "Failed to fetch campgrounds. Please try again later."
)

// Row is one rendered record with its removal identifier
type Row struct {
	Kind        Kind   `json:"kind"`
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// GalleryImage is one gallery entry taken from a park's first image
type GalleryImage struct {
	ParkID  string `json:"park_id"`
	URL     string `json:"url"`
	AltText string `json:"alt_text"`
}

// Section is the view-model of one list region
type Section struct {
	Kind    Kind   `json:"kind"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Rows    []Row  `json:"rows"`
}

// ParksView is the rendered result of one parks fetch
type ParksView struct {
	Section Section
	Gallery []GalleryImage
}

// RenderParks builds park rows and gallery entries in response order.
// Parks without images add nothing to the gallery.
func RenderParks(parks []nps.Park) ParksView {
	if len(parks) == 0 {
		return ParksView{
			Section: emptySection(KindPark),
			Gallery: []GalleryImage{},
		}
	}

	rows := make([]Row, 0, len(parks))
	gallery := make([]GalleryImage, 0, len(parks))
	for i := range parks {
		park := &parks[i]
		rows = append(rows, Row{
			Kind:        KindPark,
			ID:          park.ID,
			Title:       park.FullName,
			Description: park.Description,
		})

		if img := park.FirstImage(); img != nil {
			gallery = append(gallery, GalleryImage{
				ParkID:  park.ID,
				URL:     img.URL,
				AltText: img.AltText,
			})
		}
	}

	return ParksView{
		Section: Section{Kind: KindPark, Status: StatusOK, Rows: rows},
		Gallery: gallery,
	}
}

// RenderCampgrounds builds campground rows in response order
func RenderCampgrounds(campgrounds []nps.Campground) Section {
	if len(campgrounds) == 0 {
		return emptySection(KindCampground)
	}

	rows := make([]Row, 0, len(campgrounds))
	for _, cg := range campgrounds {
		rows = append(rows, Row{
			Kind:        KindCampground,
			ID:          cg.ID,
			Title:       cg.Name,
			Description: cg.Description,
		})
	}

	return Section{Kind: KindCampground, Status: StatusOK, Rows: rows}
}

// FailedSection returns the failure view-model for a list
func FailedSection(kind Kind) Section {
	msg := MessageParksFailed
	if kind == KindCampground {
		msg = MessageCampgroundsFailed
	}
	return Section{Kind: kind, Status: StatusFailed, Message: msg, Rows: []Row{}}
}

func emptySection(kind Kind) Section {
	msg := MessageNoParks
	if kind == KindCampground {
		msg = MessageNoCampgrounds
	}
	return Section{Kind: kind, Status: StatusEmpty, Message: msg, Rows: []Row{}}
}

func idleSection(kind Kind) Section {
	return Section{Kind: kind, Status: StatusIdle, Rows: []Row{}}
}
