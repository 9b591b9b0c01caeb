package importer

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nikbrunner/qbm/internal/model"
	"golang.org/x/net/html"
)

// Entry is one imported bookmark with the names of its tags.
type Entry struct {
	Bookmark model.Bookmark
	TagNames []string
}

// Document is the content of a bookmark file.
type Document struct {
	TagNames []string
	Entries  []Entry
}

// ParseHTMLBookmarks parses a bookmark file written by the exporter.
// Anchors without a valid page attribute are skipped.
func ParseHTMLBookmarks(r io.Reader) (Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return Document{}, err
	}

	var doc Document
	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "h3":
				if name := getTextContent(n); name != "" {
					doc.TagNames = append(doc.TagNames, name)
				}
				return // Don't recurse into H3

			case "a":
				if entry, ok := parseAnchor(n); ok {
					doc.Entries = append(doc.Entries, entry)
				}
				return // Don't recurse into A
			}
		}

		// Recurse into children
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(root)
	return doc, nil
}

// parseAnchor reads the location, timestamp and tags of an <a> element.
func parseAnchor(n *html.Node) (Entry, bool) {
	page, err := strconv.Atoi(getAttr(n, "page"))
	if err != nil || !model.ValidPage(page) {
		return Entry{}, false
	}

	b := model.NewPageBookmark(page)

	sura, suraErr := strconv.Atoi(getAttr(n, "sura"))
	ayah, ayahErr := strconv.Atoi(getAttr(n, "ayah"))
	if suraErr == nil && ayahErr == nil {
		b.Ayah = &model.AyahRef{Sura: sura, Ayah: ayah}
	}

	// Parse ADD_DATE timestamp
	if addDate := getAttr(n, "add_date"); addDate != "" {
		if ts, err := strconv.ParseInt(addDate, 10, 64); err == nil {
			b.CreatedAt = time.Unix(ts, 0)
		}
	}

	var names []string
	if raw := getAttr(n, "tags"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			name, err := url.PathUnescape(part)
			if err != nil {
				name = part
			}
			if name != "" {
				names = append(names, name)
			}
		}
	}

	return Entry{Bookmark: b, TagNames: names}, true
}

// Target is the storage an import is merged into.
type Target interface {
	Tags(ctx context.Context) ([]model.Tag, error)
	Bookmarks(ctx context.Context, order model.SortOrder) ([]model.Bookmark, error)
	AddTag(ctx context.Context, name string) (int64, error)
	AddBookmark(ctx context.Context, b model.Bookmark) (int64, error)
}

// Merge adds the document to target. Tags are matched by name and created
// when missing; bookmarks at a location that is already saved are skipped.
func Merge(ctx context.Context, target Target, doc Document) (added, skipped int, err error) {
	tags, err := target.Tags(ctx)
	if err != nil {
		return 0, 0, err
	}
	existing, err := target.Bookmarks(ctx, model.SortByLocation)
	if err != nil {
		return 0, 0, err
	}

	tagIDs := make(map[string]int64, len(tags))
	for _, t := range tags {
		if _, ok := tagIDs[t.Name]; !ok {
			tagIDs[t.Name] = t.ID
		}
	}
	resolve := func(name string) (int64, error) {
		if id, ok := tagIDs[name]; ok {
			return id, nil
		}
		id, err := target.AddTag(ctx, name)
		if err != nil {
			return 0, err
		}
		tagIDs[name] = id
		return id, nil
	}

	for _, name := range doc.TagNames {
		if _, err := resolve(name); err != nil {
			return added, skipped, err
		}
	}

	for _, entry := range doc.Entries {
		if containsLocation(existing, entry.Bookmark) {
			skipped++
			continue
		}

		b := entry.Bookmark
		b.Tags = []int64{}
		for _, name := range entry.TagNames {
			id, err := resolve(name)
			if err != nil {
				return added, skipped, err
			}
			b.Tags = append(b.Tags, id)
		}

		id, err := target.AddBookmark(ctx, b)
		if err != nil {
			return added, skipped, err
		}
		b.ID = id
		existing = append(existing, b)
		added++
	}

	return added, skipped, nil
}

func containsLocation(bookmarks []model.Bookmark, b model.Bookmark) bool {
	for _, other := range bookmarks {
		if other.SameLocation(b) {
			return true
		}
	}
	return false
}

// getTextContent returns the text content of a node.
func getTextContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// getAttr returns the value of an attribute, case-insensitive.
func getAttr(n *html.Node, key string) string {
	key = strings.ToLower(key)
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == key {
			return attr.Val
		}
	}
	return ""
}
