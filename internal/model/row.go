package model

// Sentinel tag ids. Real tag ids are always positive.
const (
	// UntaggedID keys the bucket of bookmarks that carry no known tag.
	UntaggedID int64 = -1
	// NoTag marks a BookmarkRow that is not nested under a tag header.
	NoTag int64 = -1
)

// Row is one renderable entry of the bookmark list.
// The set of implementations is closed; switch on the concrete type.
type Row interface {
	isRow()
}

// CurrentPageHeader introduces the last visited page.
type CurrentPageHeader struct{}

// CurrentPage is the last visited page.
type CurrentPage struct {
	Page int
}

// TagHeader starts the section of bookmarks carrying a tag.
type TagHeader struct {
	TagID int64
	Name  string
}

// UntaggedHeader starts the section of bookmarks without tags.
type UntaggedHeader struct{}

// PageBookmarksHeader starts the page bookmark section.
type PageBookmarksHeader struct{}

// AyahBookmarksHeader starts the ayah bookmark section.
type AyahBookmarksHeader struct{}

// BookmarkRow is a bookmark placed in the list. TagID is the tag whose
// section the row is nested under, or NoTag. The same bookmark shows up once
// per tag it carries when grouped by tag.
type BookmarkRow struct {
	BookmarkID int64
	TagID      int64
	Bookmark   Bookmark
}

// Tagged reports whether the row sits under a tag header.
func (r BookmarkRow) Tagged() bool {
	return r.TagID > 0
}

func (CurrentPageHeader) isRow()   {}
func (CurrentPage) isRow()         {}
func (TagHeader) isRow()           {}
func (UntaggedHeader) isRow()      {}
func (PageBookmarksHeader) isRow() {}
func (AyahBookmarksHeader) isRow() {}
func (BookmarkRow) isRow()         {}

// NewBookmarkRow places b in the list, nested under tagID (or NoTag).
func NewBookmarkRow(b Bookmark, tagID int64) BookmarkRow {
	return BookmarkRow{BookmarkID: b.ID, TagID: tagID, Bookmark: b}
}

// BookmarkResult is the ordered row list plus every known tag by id.
type BookmarkResult struct {
	Rows     []Row
	TagsByID map[int64]Tag
}

// Deletion is one bulk delete instruction for storage.
// Ids may repeat; storage applies them idempotently.
type Deletion struct {
	TagIDs      []int64
	BookmarkIDs []int64
	Untag       []TagAssignment
}

// Empty reports whether the deletion does nothing.
func (d Deletion) Empty() bool {
	return len(d.TagIDs) == 0 && len(d.BookmarkIDs) == 0 && len(d.Untag) == 0
}
