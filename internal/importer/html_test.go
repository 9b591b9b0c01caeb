package importer_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nikbrunner/qbm/internal/exporter"
	"github.com/nikbrunner/qbm/internal/importer"
	"github.com/nikbrunner/qbm/internal/model"
	"github.com/nikbrunner/qbm/internal/storage"
	"gotest.tools/v3/assert"
)

func TestParseHTML_PageAndAyah(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<TITLE>Bookmarks</TITLE>
<DL><p>
    <DT><H3>Favorites</H3>
</DL><p>
<DL><p>
    <DT><A HREF="quran://page/5" ADD_DATE="1234567890" PAGE="5" TAGS="Favorites">Page 5</A>
    <DT><A HREF="quran://ayah/2/255" PAGE="42" SURA="2" AYAH="255">Ayat al-Kursi</A>
</DL><p>`

	doc, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	assert.NilError(t, err)

	assert.DeepEqual(t, doc.TagNames, []string{"Favorites"})
	assert.Equal(t, len(doc.Entries), 2)

	page := doc.Entries[0]
	assert.Equal(t, page.Bookmark.Page, 5)
	assert.Assert(t, page.Bookmark.IsPageBookmark())
	assert.Assert(t, page.Bookmark.CreatedAt.Equal(time.Unix(1234567890, 0)))
	assert.DeepEqual(t, page.TagNames, []string{"Favorites"})

	ayah := doc.Entries[1]
	assert.DeepEqual(t, ayah.Bookmark.Ayah, &model.AyahRef{Sura: 2, Ayah: 255})
	assert.Equal(t, ayah.Bookmark.Page, 42)
	assert.Equal(t, len(ayah.TagNames), 0)
}

func TestParseHTML_SkipsInvalidPages(t *testing.T) {
	html := `<DL><p>
    <DT><A HREF="https://example.com">Not ours</A>
    <DT><A HREF="quran://page/0" PAGE="0">Page 0</A>
    <DT><A HREF="quran://page/605" PAGE="605">Page 605</A>
    <DT><A HREF="quran://page/604" PAGE="604">Page 604</A>
</DL><p>`

	doc, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	assert.NilError(t, err)

	assert.Equal(t, len(doc.Entries), 1)
	assert.Equal(t, doc.Entries[0].Bookmark.Page, 604)
}

func TestParseHTML_Empty(t *testing.T) {
	doc, err := importer.ParseHTMLBookmarks(strings.NewReader(""))
	assert.NilError(t, err)
	assert.Equal(t, len(doc.Entries), 0)
	assert.Equal(t, len(doc.TagNames), 0)
}

func TestImportExportRoundtrip(t *testing.T) {
	ctx := context.Background()
	created := time.Unix(1700000000, 0)
	tags := []model.Tag{{ID: 1, Name: "Favorites"}, {ID: 2, Name: "Night, Day & Dawn"}, {ID: 3, Name: "Unused"}}
	bms := []model.Bookmark{
		{ID: 1, Page: 5, Tags: []int64{1}, CreatedAt: created},
		{ID: 2, Page: 42, Ayah: &model.AyahRef{Sura: 2, Ayah: 255}, Tags: []int64{1, 2}, CreatedAt: created},
	}

	out, err := exporter.ExportHTML(tags, bms)
	assert.NilError(t, err)

	doc, err := importer.ParseHTMLBookmarks(strings.NewReader(out))
	assert.NilError(t, err)
	assert.DeepEqual(t, doc.TagNames, []string{"Favorites", "Night, Day & Dawn", "Unused"})
	assert.DeepEqual(t, doc.Entries[1].TagNames, []string{"Favorites", "Night, Day & Dawn"})

	target := storage.NewJSONStorage(filepath.Join(t.TempDir(), "bookmarks.json"))
	added, skipped, err := importer.Merge(ctx, target, doc)
	assert.NilError(t, err)
	assert.Equal(t, added, 2)
	assert.Equal(t, skipped, 0)

	gotTags, err := target.Tags(ctx)
	assert.NilError(t, err)
	assert.Equal(t, len(gotTags), 3)

	gotBookmarks, err := target.Bookmarks(ctx, model.SortByLocation)
	assert.NilError(t, err)
	assert.Equal(t, len(gotBookmarks), 2)
	assert.Assert(t, gotBookmarks[0].SameLocation(bms[0]))
	assert.Assert(t, gotBookmarks[1].SameLocation(bms[1]))
	assert.Equal(t, len(gotBookmarks[1].Tags), 2)
	assert.Assert(t, gotBookmarks[1].CreatedAt.Equal(created))
}

func TestMerge_SkipsDuplicatesAndReusesTags(t *testing.T) {
	ctx := context.Background()
	target := storage.NewJSONStorage(filepath.Join(t.TempDir(), "bookmarks.json"))

	favID, err := target.AddTag(ctx, "Favorites")
	assert.NilError(t, err)
	_, err = target.AddBookmark(ctx, model.NewPageBookmark(5))
	assert.NilError(t, err)

	doc := importer.Document{
		TagNames: []string{"Favorites"},
		Entries: []importer.Entry{
			{Bookmark: model.NewPageBookmark(5), TagNames: []string{"Favorites"}},
			{Bookmark: model.NewPageBookmark(6), TagNames: []string{"Favorites", "New"}},
			{Bookmark: model.NewPageBookmark(6)},
		},
	}

	added, skipped, err := importer.Merge(ctx, target, doc)
	assert.NilError(t, err)
	assert.Equal(t, added, 1)
	assert.Equal(t, skipped, 2)

	tags, err := target.Tags(ctx)
	assert.NilError(t, err)
	assert.Equal(t, len(tags), 2)

	bms, err := target.Bookmarks(ctx, model.SortByLocation)
	assert.NilError(t, err)
	assert.Equal(t, len(bms), 2)
	assert.Assert(t, bms[1].HasTag(favID))
	assert.Equal(t, len(bms[1].Tags), 2)
}
