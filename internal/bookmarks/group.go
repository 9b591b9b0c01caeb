// Package bookmarks turns stored bookmarks and tags into the ordered row
// list shown to the user, and turns selected rows back into bulk deletes.
package bookmarks

import "github.com/nikbrunner/qbm/internal/model"

// GroupByTag maps every tag id to the bookmarks carrying it, in bookmark
// input order. model.UntaggedID maps to the bookmarks not found under any of
// the given tags. A bookmark with several tags appears in several buckets.
func GroupByTag(tags []model.Tag, bookmarks []model.Bookmark) map[int64][]model.Bookmark {
	groups := make(map[int64][]model.Bookmark, len(tags)+1)
	seen := make(map[int64]bool)

	for _, tag := range tags {
		matching := []model.Bookmark{}
		for _, b := range bookmarks {
			if b.HasTag(tag.ID) {
				matching = append(matching, b)
				seen[b.ID] = true
			}
		}
		groups[tag.ID] = matching
	}

	// Seen status depends on every tag, so untagged is collected last.
	untagged := []model.Bookmark{}
	for _, b := range bookmarks {
		if !seen[b.ID] {
			untagged = append(untagged, b)
		}
	}
	groups[model.UntaggedID] = untagged

	return groups
}

// TagMap indexes tags by id.
func TagMap(tags []model.Tag) map[int64]model.Tag {
	byID := make(map[int64]model.Tag, len(tags))
	for _, tag := range tags {
		byID[tag.ID] = tag
	}
	return byID
}
