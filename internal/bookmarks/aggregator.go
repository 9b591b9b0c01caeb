package bookmarks

import (
	"context"

	"github.com/nikbrunner/qbm/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence the aggregator reads from and deletes through.
type Store interface {
	Bookmarks(ctx context.Context, order model.SortOrder) ([]model.Bookmark, error)
	Tags(ctx context.Context) ([]model.Tag, error)
	// BulkDelete applies all three lists atomically.
	BulkDelete(ctx context.Context, d model.Deletion) error
}

// Settings reports the last page the user visited.
type Settings interface {
	LastPage() int
}

// Aggregator builds bookmark lists from storage and removes selected rows.
// It holds no mutable state and is safe for concurrent use.
type Aggregator struct {
	store    Store
	settings Settings
	log      zerolog.Logger
}

// AggregatorParams holds the dependencies of an Aggregator.
type AggregatorParams struct {
	Store    Store
	Settings Settings
	Logger   zerolog.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(params AggregatorParams) *Aggregator {
	return &Aggregator{
		store:    params.Store,
		settings: params.Settings,
		log:      params.Logger,
	}
}

// Fetch reads all tags and bookmarks and lays them out as rows.
// Storage errors are returned as is. A cancelled ctx discards the result.
func (a *Aggregator) Fetch(ctx context.Context, order model.SortOrder, groupByTag bool) (model.BookmarkResult, error) {
	var (
		tags      []model.Tag
		bookmarks []model.Bookmark
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tags, err = a.store.Tags(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		bookmarks, err = a.store.Bookmarks(gctx, order)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.BookmarkResult{}, err
	}

	if err := ctx.Err(); err != nil {
		return model.BookmarkResult{}, err
	}

	rows := BuildRows(a.log, tags, bookmarks, RowOptions{
		GroupByTag: groupByTag,
		LastPage:   a.settings.LastPage(),
	})

	a.log.Debug().
		Int("tags", len(tags)).
		Int("bookmarks", len(bookmarks)).
		Int("rows", len(rows)).
		Str("sort", order.String()).
		Bool("group_by_tag", groupByTag).
		Msg("bookmarks fetched")

	return model.BookmarkResult{
		Rows:     rows,
		TagsByID: TagMap(tags),
	}, nil
}

// FetchOutcome is the single value delivered by FetchAsync.
type FetchOutcome struct {
	Result model.BookmarkResult
	Err    error
}

// FetchAsync runs Fetch in a goroutine. The returned channel receives
// exactly one outcome and is then closed. If ctx is done by the time the
// fetch completes, the outcome carries ctx.Err() instead of the result.
func (a *Aggregator) FetchAsync(ctx context.Context, order model.SortOrder, groupByTag bool) <-chan FetchOutcome {
	out := make(chan FetchOutcome, 1)
	go func() {
		defer close(out)
		result, err := a.Fetch(ctx, order, groupByTag)
		if ctxErr := ctx.Err(); ctxErr != nil {
			out <- FetchOutcome{Err: ctxErr}
			return
		}
		out <- FetchOutcome{Result: result, Err: err}
	}()
	return out
}

// Classify sorts rows into the three delete actions. Tag headers delete the
// tag, tag-scoped bookmark rows only untag, and untagged bookmark rows delete
// the bookmark. Other rows and non-positive ids are ignored. Repeated ids are
// kept.
func Classify(rows []model.Row) model.Deletion {
	var d model.Deletion
	for _, row := range rows {
		switch r := row.(type) {
		case model.TagHeader:
			if r.TagID > 0 {
				d.TagIDs = append(d.TagIDs, r.TagID)
			}
		case model.BookmarkRow:
			if r.BookmarkID <= 0 {
				continue
			}
			if r.Tagged() {
				d.Untag = append(d.Untag, model.TagAssignment{BookmarkID: r.BookmarkID, TagID: r.TagID})
			} else {
				d.BookmarkIDs = append(d.BookmarkIDs, r.BookmarkID)
			}
		}
	}
	return d
}

// RemoveRows classifies rows and submits them to storage in one call.
func (a *Aggregator) RemoveRows(ctx context.Context, rows []model.Row) error {
	d := Classify(rows)
	batch := model.NewBatchID()

	if err := a.store.BulkDelete(ctx, d); err != nil {
		a.log.Error().Err(err).Str("batch", batch).Msg("bulk delete failed")
		return err
	}

	a.log.Info().
		Str("batch", batch).
		Int("tags", len(d.TagIDs)).
		Int("bookmarks", len(d.BookmarkIDs)).
		Int("untagged", len(d.Untag)).
		Msg("bulk delete")
	return nil
}
