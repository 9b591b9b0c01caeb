package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/nikbrunner/qbm/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Connection pragmas. Passed through the DSN so every pooled connection
// gets them, not only the first one.
var pragmas = []string{
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
}

// SQLiteStorage implements Storage using a SQLite database.
type SQLiteStorage struct {
	db   *sql.DB
	path string
	log  zerolog.Logger
}

// NewSQLiteStorage opens (and migrates) the database at path.
func NewSQLiteStorage(path string, log zerolog.Logger) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, wrap("open", err)
	}

	dsn := path
	for i, p := range pragmas {
		sep := "&"
		if i == 0 {
			sep = "?"
		}
		dsn += sep + "_pragma=" + p
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, wrap("open", err)
	}

	s := &SQLiteStorage{
		db:   db,
		path: path,
		log:  log.With().Str("component", "sqlite").Logger(),
	}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, wrap("migrate", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// migrate applies the embedded goose migrations.
func (s *SQLiteStorage) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	s.log.Debug().Int("applied", len(results)).Msg("migrations applied")
	return nil
}

// Tags returns every tag ordered by name.
func (s *SQLiteStorage) Tags(ctx context.Context) ([]model.Tag, error) {
	query, args, err := sq.Select("id", "name").
		From("tags").
		OrderBy("name", "id").
		ToSql()
	if err != nil {
		return nil, wrap("read tags", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("read tags", err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, wrap("read tags", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("read tags", err)
	}

	return tags, nil
}

// Bookmarks returns every bookmark with its tag ids.
// Date order is newest first; location order is page, sura, ayah with
// page bookmarks first.
func (s *SQLiteStorage) Bookmarks(ctx context.Context, order model.SortOrder) ([]model.Bookmark, error) {
	builder := sq.Select("b.id", "b.sura", "b.ayah", "b.page", "b.added_date", "bt.tag_id").
		From("bookmarks b").
		LeftJoin("bookmark_tag bt ON bt.bookmark_id = b.id")

	switch order {
	case model.SortByLocation:
		builder = builder.OrderBy("b.page", "b.sura", "b.ayah", "b.id", "bt.tag_id")
	default:
		builder = builder.OrderBy("b.added_date DESC", "b.id DESC", "bt.tag_id")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, wrap("read bookmarks", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("read bookmarks", err)
	}
	defer rows.Close()

	// one row per (bookmark, tag); rows of a bookmark are adjacent
	bookmarks := []model.Bookmark{}
	for rows.Next() {
		var (
			id        int64
			sura      sql.NullInt64
			ayah      sql.NullInt64
			page      int
			addedDate int64
			tagID     sql.NullInt64
		)
		if err := rows.Scan(&id, &sura, &ayah, &page, &addedDate, &tagID); err != nil {
			return nil, wrap("read bookmarks", err)
		}

		if n := len(bookmarks); n == 0 || bookmarks[n-1].ID != id {
			b := model.Bookmark{
				ID:        id,
				Page:      page,
				Tags:      []int64{},
				CreatedAt: time.Unix(addedDate, 0),
			}
			if sura.Valid && ayah.Valid {
				b.Ayah = &model.AyahRef{Sura: int(sura.Int64), Ayah: int(ayah.Int64)}
			}
			bookmarks = append(bookmarks, b)
		}

		if tagID.Valid {
			last := &bookmarks[len(bookmarks)-1]
			last.Tags = append(last.Tags, tagID.Int64)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("read bookmarks", err)
	}

	return bookmarks, nil
}

// BulkDelete removes tags, bookmarks and associations in one transaction.
func (s *SQLiteStorage) BulkDelete(ctx context.Context, d model.Deletion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("bulk delete", err)
	}
	defer tx.Rollback()

	var stmts []sq.DeleteBuilder
	if len(d.TagIDs) > 0 {
		stmts = append(stmts,
			sq.Delete("bookmark_tag").Where(sq.Eq{"tag_id": d.TagIDs}),
			sq.Delete("tags").Where(sq.Eq{"id": d.TagIDs}),
		)
	}
	if len(d.BookmarkIDs) > 0 {
		stmts = append(stmts,
			sq.Delete("bookmark_tag").Where(sq.Eq{"bookmark_id": d.BookmarkIDs}),
			sq.Delete("bookmarks").Where(sq.Eq{"id": d.BookmarkIDs}),
		)
	}
	for _, a := range d.Untag {
		stmts = append(stmts,
			sq.Delete("bookmark_tag").Where(sq.Eq{"bookmark_id": a.BookmarkID, "tag_id": a.TagID}),
		)
	}

	for _, stmt := range stmts {
		query, args, err := stmt.ToSql()
		if err != nil {
			return wrap("bulk delete", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return wrap("bulk delete", err)
		}
	}

	return wrap("bulk delete", tx.Commit())
}

// AddTag creates a tag and returns its id.
func (s *SQLiteStorage) AddTag(ctx context.Context, name string) (int64, error) {
	query, args, err := sq.Insert("tags").
		Columns("name", "added_date").
		Values(name, time.Now().Unix()).
		ToSql()
	if err != nil {
		return 0, wrap("add tag", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrap("add tag", err)
	}
	id, err := res.LastInsertId()
	return id, wrap("add tag", err)
}

// AddBookmark saves a bookmark with its tags and returns the new id.
func (s *SQLiteStorage) AddBookmark(ctx context.Context, b model.Bookmark) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrap("add bookmark", err)
	}
	defer tx.Rollback()

	var sura, ayah *int
	if b.Ayah != nil {
		sura, ayah = &b.Ayah.Sura, &b.Ayah.Ayah
	}
	createdAt := b.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query, args, err := sq.Insert("bookmarks").
		Columns("sura", "ayah", "page", "added_date").
		Values(sura, ayah, b.Page, createdAt.Unix()).
		ToSql()
	if err != nil {
		return 0, wrap("add bookmark", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrap("add bookmark", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrap("add bookmark", err)
	}

	for _, tagID := range b.Tags {
		if err := tagBookmark(ctx, tx, id, tagID); err != nil {
			return 0, wrap("add bookmark", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, wrap("add bookmark", err)
	}
	return id, nil
}

// TagBookmark attaches a tag to a bookmark. Attaching twice is a no-op.
func (s *SQLiteStorage) TagBookmark(ctx context.Context, bookmarkID, tagID int64) error {
	return wrap("tag bookmark", tagBookmark(ctx, s.db, bookmarkID, tagID))
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func tagBookmark(ctx context.Context, db execer, bookmarkID, tagID int64) error {
	query, args, err := sq.Insert("bookmark_tag").
		Options("OR IGNORE").
		Columns("bookmark_id", "tag_id", "added_date").
		Values(bookmarkID, tagID, time.Now().Unix()).
		ToSql()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, query, args...)
	return err
}
