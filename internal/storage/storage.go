package storage

import (
	"cmp"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"

	"github.com/nikbrunner/qbm/internal/model"
	"github.com/rs/zerolog"
)

// ErrStorage matches every error returned by a storage backend.
var ErrStorage = errors.New("storage")

// Error wraps a backend failure with the operation that failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStorage) true for any *Error.
func (e *Error) Is(target error) bool {
	return target == ErrStorage
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Storage persists bookmarks and tags.
type Storage interface {
	// Bookmarks returns every bookmark with its tag ids, ordered by order.
	Bookmarks(ctx context.Context, order model.SortOrder) ([]model.Bookmark, error)
	// Tags returns every tag ordered by name.
	Tags(ctx context.Context) ([]model.Tag, error)
	// BulkDelete applies a deletion atomically. Repeated ids are harmless.
	// Deleting a tag or bookmark also drops its associations.
	BulkDelete(ctx context.Context, d model.Deletion) error

	AddTag(ctx context.Context, name string) (int64, error)
	// AddBookmark saves b and its tag ids, returning the new id.
	AddBookmark(ctx context.Context, b model.Bookmark) (int64, error)
	TagBookmark(ctx context.Context, bookmarkID, tagID int64) error

	Close() error
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// Open opens the named backend inside dataDir.
// An empty backend prefers SQLite if its database file exists, then an
// existing JSON file, and finally creates a new SQLite database.
func Open(backend, dataDir string, log zerolog.Logger) (Storage, error) {
	sqlitePath := filepath.Join(dataDir, "bookmarks.db")
	jsonPath := filepath.Join(dataDir, "bookmarks.json")

	switch backend {
	case BackendSQLite:
		return NewSQLiteStorage(sqlitePath, log)
	case BackendJSON:
		return NewJSONStorage(jsonPath), nil
	}

	if _, err := os.Stat(sqlitePath); err == nil {
		return NewSQLiteStorage(sqlitePath, log)
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return NewJSONStorage(jsonPath), nil
	}
	return NewSQLiteStorage(sqlitePath, log)
}

// sortBookmarks orders bookmarks in place the way the SQL backend does.
func sortBookmarks(bookmarks []model.Bookmark, order model.SortOrder) {
	switch order {
	case model.SortByLocation:
		slices.SortStableFunc(bookmarks, func(a, b model.Bookmark) int {
			if c := cmp.Compare(a.Page, b.Page); c != 0 {
				return c
			}
			// page bookmarks come before the ayahs printed on that page
			if a.Ayah == nil || b.Ayah == nil {
				switch {
				case a.Ayah == nil && b.Ayah != nil:
					return -1
				case a.Ayah != nil && b.Ayah == nil:
					return 1
				}
				return cmp.Compare(a.ID, b.ID)
			}
			if c := cmp.Compare(a.Ayah.Sura, b.Ayah.Sura); c != 0 {
				return c
			}
			if c := cmp.Compare(a.Ayah.Ayah, b.Ayah.Ayah); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
	default:
		slices.SortStableFunc(bookmarks, func(a, b model.Bookmark) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(b.ID, a.ID)
		})
	}
}

func sortTags(tags []model.Tag) {
	slices.SortStableFunc(tags, func(a, b model.Tag) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
