package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nikbrunner/qbm/internal/model"
	"github.com/nikbrunner/qbm/internal/storage"
	"github.com/rs/zerolog"
	"gotest.tools/v3/assert"
)

// backends runs fn against every storage implementation.
func backends(t *testing.T, fn func(t *testing.T, s storage.Storage)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		s, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "bookmarks.db"), zerolog.Nop())
		assert.NilError(t, err)
		defer s.Close()
		fn(t, s)
	})

	t.Run("json", func(t *testing.T) {
		s := storage.NewJSONStorage(filepath.Join(t.TempDir(), "bookmarks.json"))
		defer s.Close()
		fn(t, s)
	})
}

func mustTag(t *testing.T, s storage.Storage, name string) int64 {
	t.Helper()
	id, err := s.AddTag(context.Background(), name)
	assert.NilError(t, err)
	return id
}

func mustBookmark(t *testing.T, s storage.Storage, b model.Bookmark) int64 {
	t.Helper()
	id, err := s.AddBookmark(context.Background(), b)
	assert.NilError(t, err)
	return id
}

func bookmarkIDs(bs []model.Bookmark) []int64 {
	out := []int64{}
	for _, b := range bs {
		out = append(out, b.ID)
	}
	return out
}

func TestStorage_Empty(t *testing.T) {
	backends(t, func(t *testing.T, s storage.Storage) {
		ctx := context.Background()

		tags, err := s.Tags(ctx)
		assert.NilError(t, err)
		assert.Equal(t, len(tags), 0)
		assert.Assert(t, tags != nil)

		bms, err := s.Bookmarks(ctx, model.SortByDateAdded)
		assert.NilError(t, err)
		assert.Equal(t, len(bms), 0)
		assert.Assert(t, bms != nil)
	})
}

func TestStorage_AddAndRead(t *testing.T) {
	backends(t, func(t *testing.T, s storage.Storage) {
		ctx := context.Background()
		created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

		later := mustTag(t, s, "Later")
		fav := mustTag(t, s, "Favorites")
		id := mustBookmark(t, s, model.Bookmark{
			Page:      42,
			Ayah:      &model.AyahRef{Sura: 2, Ayah: 255},
			Tags:      []int64{later, fav},
			CreatedAt: created,
		})

		tags, err := s.Tags(ctx)
		assert.NilError(t, err)
		assert.DeepEqual(t, tags, []model.Tag{
			{ID: fav, Name: "Favorites"},
			{ID: later, Name: "Later"},
		})

		bms, err := s.Bookmarks(ctx, model.SortByDateAdded)
		assert.NilError(t, err)
		assert.Equal(t, len(bms), 1)

		got := bms[0]
		assert.Equal(t, got.ID, id)
		assert.Equal(t, got.Page, 42)
		assert.DeepEqual(t, got.Ayah, &model.AyahRef{Sura: 2, Ayah: 255})
		assert.Assert(t, got.HasTag(later))
		assert.Assert(t, got.HasTag(fav))
		assert.Equal(t, len(got.Tags), 2)
		assert.Assert(t, got.CreatedAt.Equal(created))
	})
}

func TestStorage_SortOrders(t *testing.T) {
	backends(t, func(t *testing.T, s storage.Storage) {
		ctx := context.Background()
		day := func(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }

		p50 := mustBookmark(t, s, model.Bookmark{Page: 50, CreatedAt: day(1)})
		a42 := mustBookmark(t, s, model.Bookmark{Page: 42, Ayah: &model.AyahRef{Sura: 2, Ayah: 255}, CreatedAt: day(3)})
		p42 := mustBookmark(t, s, model.Bookmark{Page: 42, CreatedAt: day(2)})
		a42b := mustBookmark(t, s, model.Bookmark{Page: 42, Ayah: &model.AyahRef{Sura: 2, Ayah: 253}, CreatedAt: day(4)})

		byDate, err := s.Bookmarks(ctx, model.SortByDateAdded)
		assert.NilError(t, err)
		assert.DeepEqual(t, bookmarkIDs(byDate), []int64{a42b, a42, p42, p50})

		byLocation, err := s.Bookmarks(ctx, model.SortByLocation)
		assert.NilError(t, err)
		assert.DeepEqual(t, bookmarkIDs(byLocation), []int64{p42, a42b, a42, p50})
	})
}

func TestStorage_TagBookmark(t *testing.T) {
	backends(t, func(t *testing.T, s storage.Storage) {
		ctx := context.Background()
		tag := mustTag(t, s, "Favorites")
		id := mustBookmark(t, s, model.NewPageBookmark(1))

		assert.NilError(t, s.TagBookmark(ctx, id, tag))
		assert.NilError(t, s.TagBookmark(ctx, id, tag))

		bms, err := s.Bookmarks(ctx, model.SortByDateAdded)
		assert.NilError(t, err)
		assert.DeepEqual(t, bms[0].Tags, []int64{tag})

		err = s.TagBookmark(ctx, id, tag+100)
		assert.Assert(t, errors.Is(err, storage.ErrStorage), "got %v", err)
	})
}

func TestStorage_BulkDelete(t *testing.T) {
	backends(t, func(t *testing.T, s storage.Storage) {
		ctx := context.Background()
		fav := mustTag(t, s, "Favorites")
		later := mustTag(t, s, "Later")
		keep := mustTag(t, s, "Keep")

		b1 := mustBookmark(t, s, model.Bookmark{Page: 1, Tags: []int64{fav, keep}})
		b2 := mustBookmark(t, s, model.Bookmark{Page: 2, Tags: []int64{later, keep}})
		b3 := mustBookmark(t, s, model.Bookmark{Page: 3})

		err := s.BulkDelete(ctx, model.Deletion{
			TagIDs:      []int64{fav, fav},
			BookmarkIDs: []int64{b3, b3},
			Untag:       []model.TagAssignment{{BookmarkID: b2, TagID: later}, {BookmarkID: b2, TagID: later}},
		})
		assert.NilError(t, err)

		tags, err := s.Tags(ctx)
		assert.NilError(t, err)
		assert.DeepEqual(t, tags, []model.Tag{{ID: keep, Name: "Keep"}, {ID: later, Name: "Later"}})

		bms, err := s.Bookmarks(ctx, model.SortByLocation)
		assert.NilError(t, err)
		assert.DeepEqual(t, bookmarkIDs(bms), []int64{b1, b2})
		assert.DeepEqual(t, bms[0].Tags, []int64{keep})
		assert.DeepEqual(t, bms[1].Tags, []int64{keep})
	})
}

func TestStorage_BulkDeleteEmptyIsNoop(t *testing.T) {
	backends(t, func(t *testing.T, s storage.Storage) {
		ctx := context.Background()
		mustBookmark(t, s, model.NewPageBookmark(9))

		assert.NilError(t, s.BulkDelete(ctx, model.Deletion{}))

		bms, err := s.Bookmarks(ctx, model.SortByDateAdded)
		assert.NilError(t, err)
		assert.Equal(t, len(bms), 1)
	})
}

func TestStorage_BulkDeleteCancelledChangesNothing(t *testing.T) {
	backends(t, func(t *testing.T, s storage.Storage) {
		tag := mustTag(t, s, "Favorites")
		id := mustBookmark(t, s, model.Bookmark{Page: 1, Tags: []int64{tag}})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := s.BulkDelete(ctx, model.Deletion{
			TagIDs:      []int64{tag},
			BookmarkIDs: []int64{id},
		})
		assert.Assert(t, errors.Is(err, storage.ErrStorage), "got %v", err)

		tags, err := s.Tags(context.Background())
		assert.NilError(t, err)
		assert.Equal(t, len(tags), 1)
		bms, err := s.Bookmarks(context.Background(), model.SortByDateAdded)
		assert.NilError(t, err)
		assert.DeepEqual(t, bms[0].Tags, []int64{tag})
	})
}

func TestStorage_ReadsCancelled(t *testing.T) {
	backends(t, func(t *testing.T, s storage.Storage) {
		mustBookmark(t, s, model.Bookmark{Page: 3})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bms, err := s.Bookmarks(ctx, model.SortByLocation)
		assert.Assert(t, errors.Is(err, storage.ErrStorage), "got %v", err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Assert(t, bms == nil)

		tags, err := s.Tags(ctx)
		assert.Assert(t, errors.Is(err, storage.ErrStorage), "got %v", err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Assert(t, tags == nil)
	})
}

func TestStorage_AddBookmarkUnknownTag(t *testing.T) {
	backends(t, func(t *testing.T, s storage.Storage) {
		_, err := s.AddBookmark(context.Background(), model.Bookmark{Page: 1, Tags: []int64{77}})
		assert.Assert(t, errors.Is(err, storage.ErrStorage), "got %v", err)

		bms, err := s.Bookmarks(context.Background(), model.SortByDateAdded)
		assert.NilError(t, err)
		assert.Equal(t, len(bms), 0)
	})
}

func TestError_Wrapping(t *testing.T) {
	inner := errors.New("disk full")
	err := error(&storage.Error{Op: "bulk delete", Err: inner})

	assert.Assert(t, errors.Is(err, storage.ErrStorage))
	assert.Assert(t, errors.Is(err, inner))
	assert.Equal(t, err.Error(), "storage: bulk delete: disk full")

	var se *storage.Error
	assert.Assert(t, errors.As(err, &se))
	assert.Equal(t, se.Op, "bulk delete")
}

func TestOpen_BackendSelection(t *testing.T) {
	log := zerolog.Nop()

	t.Run("explicit json", func(t *testing.T) {
		s, err := storage.Open(storage.BackendJSON, t.TempDir(), log)
		assert.NilError(t, err)
		defer s.Close()
		_, ok := s.(*storage.JSONStorage)
		assert.Assert(t, ok, "got %T", s)
	})

	t.Run("default creates sqlite", func(t *testing.T) {
		s, err := storage.Open("", t.TempDir(), log)
		assert.NilError(t, err)
		defer s.Close()
		_, ok := s.(*storage.SQLiteStorage)
		assert.Assert(t, ok, "got %T", s)
	})

	t.Run("default keeps existing json", func(t *testing.T) {
		dir := t.TempDir()
		js := storage.NewJSONStorage(filepath.Join(dir, "bookmarks.json"))
		_, err := js.AddTag(context.Background(), "Favorites")
		assert.NilError(t, err)

		s, err := storage.Open("", dir, log)
		assert.NilError(t, err)
		defer s.Close()
		_, ok := s.(*storage.JSONStorage)
		assert.Assert(t, ok, "got %T", s)
	})
}

func TestSQLiteStorage_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "bookmarks.db")

	s, err := storage.NewSQLiteStorage(path, zerolog.Nop())
	assert.NilError(t, err)
	id := mustBookmark(t, s, model.NewPageBookmark(12))
	assert.NilError(t, s.Close())

	s, err = storage.NewSQLiteStorage(path, zerolog.Nop())
	assert.NilError(t, err)
	defer s.Close()

	bms, err := s.Bookmarks(context.Background(), model.SortByDateAdded)
	assert.NilError(t, err)
	assert.DeepEqual(t, bookmarkIDs(bms), []int64{id})
	assert.Equal(t, s.Path(), path)
}
