package bookmarks_test

import (
	"context"
	"sync"

	"github.com/nikbrunner/qbm/internal/model"
)

type fakeStore struct {
	mu        sync.Mutex
	tags      []model.Tag
	bookmarks []model.Bookmark
	tagsErr   error
	readErr   error
	deleteErr error
	deletes   []model.Deletion
	lastOrder model.SortOrder
}

func (s *fakeStore) Bookmarks(_ context.Context, order model.SortOrder) ([]model.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOrder = order
	if s.readErr != nil {
		return nil, s.readErr
	}
	return append([]model.Bookmark(nil), s.bookmarks...), nil
}

func (s *fakeStore) Tags(_ context.Context) ([]model.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tagsErr != nil {
		return nil, s.tagsErr
	}
	return append([]model.Tag(nil), s.tags...), nil
}

func (s *fakeStore) BulkDelete(_ context.Context, d model.Deletion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, d)
	return s.deleteErr
}

type fixedSettings int

func (p fixedSettings) LastPage() int { return int(p) }

func pageBookmark(id int64, page int, tags ...int64) model.Bookmark {
	if tags == nil {
		tags = []int64{}
	}
	return model.Bookmark{ID: id, Page: page, Tags: tags}
}

func ayahBookmark(id int64, sura, ayah, page int, tags ...int64) model.Bookmark {
	if tags == nil {
		tags = []int64{}
	}
	return model.Bookmark{ID: id, Page: page, Ayah: &model.AyahRef{Sura: sura, Ayah: ayah}, Tags: tags}
}
