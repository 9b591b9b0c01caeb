package model

import (
	"fmt"
	"slices"
	"time"
)

// AyahRef points at a single verse.
type AyahRef struct {
	Sura int `json:"sura"`
	Ayah int `json:"ayah"`
}

// Bookmark is a saved location in the mushaf.
// Ayah is nil for page bookmarks. Ayah bookmarks still carry the page the
// verse is printed on so storage can sort by location.
type Bookmark struct {
	ID        int64     `json:"id"`
	Page      int       `json:"page"`
	Ayah      *AyahRef  `json:"ayah,omitempty"`
	Tags      []int64   `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewPageBookmark creates an unsaved bookmark for a whole page.
func NewPageBookmark(page int) Bookmark {
	return Bookmark{
		Page:      page,
		Tags:      []int64{},
		CreatedAt: time.Now(),
	}
}

// NewAyahBookmark creates an unsaved bookmark for a verse on the given page.
func NewAyahBookmark(sura, ayah, page int) Bookmark {
	return Bookmark{
		Page:      page,
		Ayah:      &AyahRef{Sura: sura, Ayah: ayah},
		Tags:      []int64{},
		CreatedAt: time.Now(),
	}
}

// IsPageBookmark reports whether the bookmark covers a whole page.
func (b Bookmark) IsPageBookmark() bool {
	return b.Ayah == nil
}

// HasTag reports whether the bookmark carries the given tag id.
func (b Bookmark) HasTag(tagID int64) bool {
	return slices.Contains(b.Tags, tagID)
}

// SameLocation reports whether two bookmarks point at the same place.
func (b Bookmark) SameLocation(other Bookmark) bool {
	if b.Page != other.Page {
		return false
	}
	if b.Ayah == nil || other.Ayah == nil {
		return b.Ayah == nil && other.Ayah == nil
	}
	return *b.Ayah == *other.Ayah
}

// Label returns a short human readable description of the location.
func (b Bookmark) Label() string {
	if b.IsPageBookmark() {
		return fmt.Sprintf("Page %d", b.Page)
	}
	return fmt.Sprintf("Sura %d, Ayah %d (page %d)", b.Ayah.Sura, b.Ayah.Ayah, b.Page)
}
