package core

// NextCollection identifies which bins go out on the next collection day.
type NextCollection string

const (
	NextCollectionAllBins   NextCollection = "All Bins"
	NextCollectionRecycling NextCollection = "Recycling"
	NextCollectionUnknown   NextCollection = "Unknown"
)

// CollectionReading is one parsed view of the council collection page.
// A reading is either resolved (every field populated) or empty; the parser
// never hands out anything in between.
type CollectionReading struct {
	RecyclingLabel string         `json:"recycling" yaml:"recycling"`
	WasteType      string         `json:"waste" yaml:"waste"`
	WasteDate      string         `json:"waste_date" yaml:"waste_date"`
	CalendarColour string         `json:"calendar_colour" yaml:"calendar_colour"`
	NextCollection NextCollection `json:"next_collection" yaml:"next_collection"`
}

// EmptyReading is what callers see before the first successful refresh.
func EmptyReading() CollectionReading {
	return CollectionReading{NextCollection: NextCollectionUnknown}
}

// Resolved reports whether the reading carries page data.
func (r CollectionReading) Resolved() bool {
	if r.NextCollection != NextCollectionAllBins && r.NextCollection != NextCollectionRecycling {
		return false
	}
	return r.RecyclingLabel != "" && r.WasteType != "" && r.WasteDate != "" && r.CalendarColour != ""
}
