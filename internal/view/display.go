package view

// Display holds the parks list, campgrounds list and gallery a surface shows.
// It is not safe for concurrent use.
type Display struct {
	parks       Section
	campgrounds Section
	gallery     []GalleryImage
}

// Snapshot is a copy of a Display's contents
type Snapshot struct {
	Parks       Section        `json:"parks"`
	Campgrounds Section        `json:"campgrounds"`
	Gallery     []GalleryImage `json:"gallery"`
}

// NewDisplay creates an idle display with empty regions
func NewDisplay() *Display {
	return &Display{
		parks:       idleSection(KindPark),
		campgrounds: idleSection(KindCampground),
		gallery:     []GalleryImage{},
	}
}

// ClearGallery removes every gallery entry
func (d *Display) ClearGallery() {
	d.gallery = []GalleryImage{}
}

// ApplyParks replaces the parks list and appends the view's gallery entries
func (d *Display) ApplyParks(pv ParksView) {
	d.parks = copySection(pv.Section)
	d.gallery = append(d.gallery, pv.Gallery...)
}

// ApplyCampgrounds replaces the campgrounds list
func (d *Display) ApplyCampgrounds(s Section) {
	d.campgrounds = copySection(s)
}

// Fail replaces a list with its failure message
func (d *Display) Fail(kind Kind) {
	d.set(kind, FailedSection(kind))
}

// Remove deletes the row of the given kind whose identifier equals id.
// It reports whether a row was removed. Gallery entries are left in place.
func (d *Display) Remove(kind Kind, id string) bool {
	s := d.section(kind)
	if s == nil {
		return false
	}

	for i := range s.Rows {
		if s.Rows[i].ID == id {
			s.Rows = append(s.Rows[:i:i], s.Rows[i+1:]...)
			return true
		}
	}
	return false
}

// Section returns a copy of the list of the given kind
func (d *Display) Section(kind Kind) Section {
	if s := d.section(kind); s != nil {
		return copySection(*s)
	}
	return Section{Kind: kind, Rows: []Row{}}
}

// Parks returns a copy of the parks list
func (d *Display) Parks() Section {
	return d.Section(KindPark)
}

// Campgrounds returns a copy of the campgrounds list
func (d *Display) Campgrounds() Section {
	return d.Section(KindCampground)
}

// Gallery returns a copy of the gallery entries
func (d *Display) Gallery() []GalleryImage {
	out := make([]GalleryImage, len(d.gallery))
	copy(out, d.gallery)
	return out
}

// Snapshot returns a copy of the whole display
func (d *Display) Snapshot() Snapshot {
	return Snapshot{
		Parks:       d.Parks(),
		Campgrounds: d.Campgrounds(),
		Gallery:     d.Gallery(),
	}
}

func (d *Display) section(kind Kind) *Section {
	switch kind {
	case KindPark:
		return &d.parks
	case KindCampground:
		return &d.campgrounds
	}
	return nil
}

func (d *Display) set(kind Kind, s Section) {
	if dst := d.section(kind); dst != nil {
		*dst = copySection(s)
	}
}

func copySection(s Section) Section {
	rows := make([]Row, len(s.Rows))
	copy(rows, s.Rows)
	s.Rows = rows
	return s
}
