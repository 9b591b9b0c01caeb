package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/nikbrunner/qbm/internal/model"
)

// snapshot is the on-disk layout of the JSON backend.
type snapshot struct {
	NextID    int64            `json:"nextId"`
	Tags      []model.Tag      `json:"tags"`
	Bookmarks []model.Bookmark `json:"bookmarks"`
}

// JSONStorage implements Storage using a single JSON file.
// Every write rewrites the file through a rename, so a failed write leaves
// the previous content in place.
type JSONStorage struct {
	mu   sync.Mutex
	path string
}

// NewJSONStorage creates a new JSONStorage with the given file path.
func NewJSONStorage(path string) *JSONStorage {
	return &JSONStorage{path: path}
}

// Path returns the storage file path.
func (s *JSONStorage) Path() string {
	return s.path
}

// Close is a no-op; the file is not held open.
func (s *JSONStorage) Close() error {
	return nil
}

// Bookmarks returns all bookmarks in the requested order.
func (s *JSONStorage) Bookmarks(ctx context.Context, order model.SortOrder) ([]model.Bookmark, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("read bookmarks", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load()
	if err != nil {
		return nil, wrap("read bookmarks", err)
	}
	sortBookmarks(snap.Bookmarks, order)
	return snap.Bookmarks, nil
}

// Tags returns all tags ordered by name.
func (s *JSONStorage) Tags(ctx context.Context) ([]model.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("read tags", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load()
	if err != nil {
		return nil, wrap("read tags", err)
	}
	sortTags(snap.Tags)
	return snap.Tags, nil
}

// BulkDelete removes tags, bookmarks and associations in one file write.
func (s *JSONStorage) BulkDelete(ctx context.Context, d model.Deletion) error {
	if err := ctx.Err(); err != nil {
		return wrap("bulk delete", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load()
	if err != nil {
		return wrap("bulk delete", err)
	}

	snap.Tags = slices.DeleteFunc(snap.Tags, func(t model.Tag) bool {
		return slices.Contains(d.TagIDs, t.ID)
	})
	snap.Bookmarks = slices.DeleteFunc(snap.Bookmarks, func(b model.Bookmark) bool {
		return slices.Contains(d.BookmarkIDs, b.ID)
	})

	for i := range snap.Bookmarks {
		b := &snap.Bookmarks[i]
		b.Tags = slices.DeleteFunc(b.Tags, func(tagID int64) bool {
			if slices.Contains(d.TagIDs, tagID) {
				return true
			}
			return slices.Contains(d.Untag, model.TagAssignment{BookmarkID: b.ID, TagID: tagID})
		})
	}

	return wrap("bulk delete", s.save(snap))
}

// AddTag creates a tag and returns its id.
func (s *JSONStorage) AddTag(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load()
	if err != nil {
		return 0, wrap("add tag", err)
	}

	snap.NextID++
	id := snap.NextID
	snap.Tags = append(snap.Tags, model.Tag{ID: id, Name: name})

	if err := s.save(snap); err != nil {
		return 0, wrap("add tag", err)
	}
	return id, nil
}

// AddBookmark saves a bookmark and returns its id.
// Tag ids that do not exist are rejected, matching the SQL foreign keys.
func (s *JSONStorage) AddBookmark(ctx context.Context, b model.Bookmark) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load()
	if err != nil {
		return 0, wrap("add bookmark", err)
	}

	for _, tagID := range b.Tags {
		if !hasTag(snap.Tags, tagID) {
			return 0, wrap("add bookmark", fmt.Errorf("unknown tag %d", tagID))
		}
	}

	snap.NextID++
	b.ID = snap.NextID
	b.Tags = slices.Clone(b.Tags)
	if b.Tags == nil {
		b.Tags = []int64{}
	}
	snap.Bookmarks = append(snap.Bookmarks, b)

	if err := s.save(snap); err != nil {
		return 0, wrap("add bookmark", err)
	}
	return b.ID, nil
}

// TagBookmark attaches a tag to a bookmark. Attaching twice is a no-op.
func (s *JSONStorage) TagBookmark(ctx context.Context, bookmarkID, tagID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load()
	if err != nil {
		return wrap("tag bookmark", err)
	}
	if !hasTag(snap.Tags, tagID) {
		return wrap("tag bookmark", fmt.Errorf("unknown tag %d", tagID))
	}

	idx := slices.IndexFunc(snap.Bookmarks, func(b model.Bookmark) bool { return b.ID == bookmarkID })
	if idx < 0 {
		return wrap("tag bookmark", fmt.Errorf("unknown bookmark %d", bookmarkID))
	}
	if snap.Bookmarks[idx].HasTag(tagID) {
		return nil
	}
	snap.Bookmarks[idx].Tags = append(snap.Bookmarks[idx].Tags, tagID)

	return wrap("tag bookmark", s.save(snap))
}

// load reads the snapshot. A missing file is an empty store.
func (s *JSONStorage) load() (*snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &snapshot{
				Tags:      []model.Tag{},
				Bookmarks: []model.Bookmark{},
			}, nil
		}
		return nil, err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}

	// Ensure slices are not nil
	if snap.Tags == nil {
		snap.Tags = []model.Tag{}
	}
	if snap.Bookmarks == nil {
		snap.Bookmarks = []model.Bookmark{}
	}
	for i := range snap.Bookmarks {
		if snap.Bookmarks[i].Tags == nil {
			snap.Bookmarks[i].Tags = []int64{}
		}
	}

	return &snap, nil
}

// save writes the snapshot to a temp file and renames it into place.
func (s *JSONStorage) save(snap *snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".bookmarks-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}

func hasTag(tags []model.Tag, id int64) bool {
	return slices.ContainsFunc(tags, func(t model.Tag) bool { return t.ID == id })
}
