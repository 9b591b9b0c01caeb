package model

// Tag is a user defined label that can be attached to many bookmarks.
// Names are not unique.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TagAssignment links a bookmark to a tag.
type TagAssignment struct {
	BookmarkID int64 `json:"bookmarkId"`
	TagID      int64 `json:"tagId"`
}
