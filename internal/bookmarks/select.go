package bookmarks

import "github.com/nikbrunner/qbm/internal/model"

// RowRef names one removable row by id.
type RowRef struct {
	TagID      int64
	BookmarkID int64
}

// TagRef refers to the header row of a tag.
func TagRef(tagID int64) RowRef {
	return RowRef{TagID: tagID}
}

// BookmarkRef refers to the untagged row of a bookmark.
func BookmarkRef(bookmarkID int64) RowRef {
	return RowRef{TagID: model.NoTag, BookmarkID: bookmarkID}
}

// AssignmentRef refers to a bookmark row listed under a tag.
func AssignmentRef(bookmarkID, tagID int64) RowRef {
	return RowRef{TagID: tagID, BookmarkID: bookmarkID}
}

// GroupByTag reports the layout in which the row appears. Every bookmark
// has an untagged row in the flat layout; tag headers and tagged rows only
// exist when grouping by tag.
func (r RowRef) GroupByTag() bool {
	return r.BookmarkID <= 0 || r.TagID > 0
}

// FindRow returns the row of rows that ref names.
func FindRow(rows []model.Row, ref RowRef) (model.Row, bool) {
	for _, row := range rows {
		switch r := row.(type) {
		case model.TagHeader:
			if ref.BookmarkID <= 0 && ref.TagID > 0 && r.TagID == ref.TagID {
				return r, true
			}
		case model.BookmarkRow:
			if ref.BookmarkID > 0 && r.BookmarkID == ref.BookmarkID && r.TagID == ref.TagID {
				return r, true
			}
		}
	}
	return nil, false
}
