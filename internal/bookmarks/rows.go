package bookmarks

import (
	"github.com/nikbrunner/qbm/internal/model"
	"github.com/rs/zerolog"
)

// RowOptions controls the layout produced by BuildRows.
type RowOptions struct {
	GroupByTag bool
	// LastPage is the last visited page, or model.NoPageSaved.
	LastPage int
}

// BuildRows lays out tags and bookmarks as list rows. Input order is kept;
// sorting is up to storage. A last page outside the mushaf is logged and
// left out.
func BuildRows(log zerolog.Logger, tags []model.Tag, bookmarks []model.Bookmark, opts RowOptions) []model.Row {
	var rows []model.Row
	if opts.GroupByTag {
		rows = rowsByTag(tags, bookmarks)
	} else {
		rows = rowsByKind(bookmarks)
	}

	showLastPage := opts.LastPage != model.NoPageSaved
	if showLastPage && !model.ValidPage(opts.LastPage) {
		showLastPage = false
		log.Warn().Int("page", opts.LastPage).Msg("invalid last saved page")
	}

	if showLastPage {
		rows = append([]model.Row{
			model.CurrentPageHeader{},
			model.CurrentPage{Page: opts.LastPage},
		}, rows...)
	}

	return rows
}

// rowsByTag emits one section per tag, then the untagged section if any.
func rowsByTag(tags []model.Tag, bookmarks []model.Bookmark) []model.Row {
	groups := GroupByTag(tags, bookmarks)
	rows := make([]model.Row, 0, len(tags)+len(bookmarks)+1)

	for _, tag := range tags {
		rows = append(rows, model.TagHeader{TagID: tag.ID, Name: tag.Name})
		for _, b := range groups[tag.ID] {
			rows = append(rows, model.NewBookmarkRow(b, tag.ID))
		}
	}

	untagged := groups[model.UntaggedID]
	if len(untagged) > 0 {
		rows = append(rows, model.UntaggedHeader{})
		for _, b := range untagged {
			rows = append(rows, model.NewBookmarkRow(b, model.NoTag))
		}
	}

	return rows
}

// rowsByKind emits page bookmarks first, then ayah bookmarks, each behind
// its own header.
func rowsByKind(bookmarks []model.Bookmark) []model.Row {
	rows := make([]model.Row, 0, len(bookmarks)+2)
	var ayahBookmarks []model.Bookmark

	for _, b := range bookmarks {
		if b.IsPageBookmark() {
			rows = append(rows, model.NewBookmarkRow(b, model.NoTag))
		} else {
			ayahBookmarks = append(ayahBookmarks, b)
		}
	}

	if len(rows) > 0 {
		rows = append([]model.Row{model.PageBookmarksHeader{}}, rows...)
	}

	if len(ayahBookmarks) > 0 {
		rows = append(rows, model.AyahBookmarksHeader{})
		for _, b := range ayahBookmarks {
			rows = append(rows, model.NewBookmarkRow(b, model.NoTag))
		}
	}

	return rows
}
