package exporter

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nikbrunner/qbm/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultExportPath returns the default export file path.
// Format: ~/Downloads/qbm-export-YYYY-MM-DD.html
func DefaultExportPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("qbm-export-%s.html", time.Now().Format("2006-01-02"))
	return filepath.Join(home, "Downloads", filename), nil
}

// ExportHTML writes tags and bookmarks as a Netscape style bookmark file.
// Tags come first as H3 entries so tags without bookmarks survive a round
// trip; each bookmark carries its location and tag names as attributes.
func ExportHTML(tags []model.Tag, bookmarks []model.Bookmark) (string, error) {
	tagsByID := make(map[int64]string, len(tags))
	tagList := element(atom.Dl)
	for _, tag := range tags {
		tagsByID[tag.ID] = tag.Name
		dt := element(atom.Dt)
		dt.AppendChild(withText(element(atom.H3), tag.Name))
		tagList.AppendChild(dt)
	}

	bookmarkList := element(atom.Dl)
	for _, b := range bookmarks {
		attrs := []html.Attribute{
			{Key: "href", Val: href(b)},
			{Key: "add_date", Val: strconv.FormatInt(b.CreatedAt.Unix(), 10)},
			{Key: "page", Val: strconv.Itoa(b.Page)},
		}
		if b.Ayah != nil {
			attrs = append(attrs,
				html.Attribute{Key: "sura", Val: strconv.Itoa(b.Ayah.Sura)},
				html.Attribute{Key: "ayah", Val: strconv.Itoa(b.Ayah.Ayah)},
			)
		}

		var names []string
		for _, id := range b.Tags {
			if name, ok := tagsByID[id]; ok {
				names = append(names, url.PathEscape(name))
			}
		}
		if len(names) > 0 {
			attrs = append(attrs, html.Attribute{Key: "tags", Val: strings.Join(names, ",")})
		}

		a := withText(element(atom.A), b.Label())
		a.Attr = attrs
		dt := element(atom.Dt)
		dt.AppendChild(a)
		bookmarkList.AppendChild(dt)
	}

	nodes := []*html.Node{
		{Type: html.DoctypeNode, Data: "NETSCAPE-Bookmark-file-1"},
		withText(element(atom.Title), "Bookmarks"),
		withText(element(atom.H1), "Bookmarks"),
		tagList,
		bookmarkList,
	}

	var b strings.Builder
	for _, n := range nodes {
		if err := html.Render(&b, n); err != nil {
			return "", err
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// href builds a quran:// link for the bookmark location.
func href(b model.Bookmark) string {
	if b.Ayah == nil {
		return fmt.Sprintf("quran://page/%d", b.Page)
	}
	return fmt.Sprintf("quran://ayah/%d/%d", b.Ayah.Sura, b.Ayah.Ayah)
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func withText(n *html.Node, text string) *html.Node {
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}
