// Package render formats bookmark rows for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/nikbrunner/qbm/internal/model"
)

// Row titles.
const (
	CurrentPageTitle   = "Current Page"
	UntaggedTitle      = "Not Tagged"
	PageBookmarksTitle = "Page Bookmarks"
	AyahBookmarksTitle = "Ayah Bookmarks"
	emptyText          = "No bookmarks"
)

// Rows renders the result as one line per row, each ending in a newline.
// Tag ids on bookmark rows are resolved through result.TagsByID.
func Rows(result model.BookmarkResult, styles Styles) string {
	if len(result.Rows) == 0 {
		return styles.Empty.Render(emptyText) + "\n"
	}

	var b strings.Builder
	for _, row := range result.Rows {
		b.WriteString(Line(row, result.TagsByID, styles))
		b.WriteString("\n")
	}
	return b.String()
}

// Line renders a single row without a trailing newline.
func Line(row model.Row, tagsByID map[int64]model.Tag, styles Styles) string {
	switch r := row.(type) {
	case model.CurrentPageHeader:
		return styles.Header.Render(CurrentPageTitle)
	case model.CurrentPage:
		return "  " + styles.Bookmark.Render(fmt.Sprintf("Page %d", r.Page))
	case model.TagHeader:
		return styles.Tag.Render(r.Name)
	case model.UntaggedHeader:
		return styles.Header.Render(UntaggedTitle)
	case model.PageBookmarksHeader:
		return styles.Header.Render(PageBookmarksTitle)
	case model.AyahBookmarksHeader:
		return styles.Header.Render(AyahBookmarksTitle)
	case model.BookmarkRow:
		line := "  " + styles.Meta.Render(fmt.Sprintf("#%d", r.BookmarkID)) +
			" " + styles.Bookmark.Render(r.Bookmark.Label())
		if names := tagNames(r.Bookmark.Tags, tagsByID); len(names) > 0 {
			line += " " + styles.Meta.Render("["+strings.Join(names, ", ")+"]")
		}
		return line
	}
	return ""
}

// Title returns the plain text of a row, used for searching.
func Title(row model.Row) string {
	switch r := row.(type) {
	case model.CurrentPageHeader:
		return CurrentPageTitle
	case model.CurrentPage:
		return fmt.Sprintf("Page %d", r.Page)
	case model.TagHeader:
		return r.Name
	case model.UntaggedHeader:
		return UntaggedTitle
	case model.PageBookmarksHeader:
		return PageBookmarksTitle
	case model.AyahBookmarksHeader:
		return AyahBookmarksTitle
	case model.BookmarkRow:
		return r.Bookmark.Label()
	}
	return ""
}

// tagNames resolves tag ids, skipping ids with no known tag.
func tagNames(ids []int64, tagsByID map[int64]model.Tag) []string {
	var names []string
	for _, id := range ids {
		if tag, ok := tagsByID[id]; ok {
			names = append(names, tag.Name)
		}
	}
	return names
}
