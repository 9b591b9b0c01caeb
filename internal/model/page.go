package model

// Page bounds of the Madani mushaf.
const (
	FirstPage = 1
	LastPage  = 604

	// NoPageSaved is reported by settings when no page was visited yet.
	NoPageSaved = -1
)

// ValidPage reports whether page lies within [FirstPage, LastPage].
func ValidPage(page int) bool {
	return page >= FirstPage && page <= LastPage
}

// SortOrder selects how storage orders bookmarks.
type SortOrder int

const (
	SortByDateAdded SortOrder = iota // newest first
	SortByLocation                   // page, then sura and ayah
)

// String returns the config name of the sort order.
func (o SortOrder) String() string {
	switch o {
	case SortByLocation:
		return "location"
	default:
		return "date"
	}
}

// ParseSortOrder maps a config name to a SortOrder.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch s {
	case "date", "":
		return SortByDateAdded, true
	case "location":
		return SortByLocation, true
	}
	return SortByDateAdded, false
}
