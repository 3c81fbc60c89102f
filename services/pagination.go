package services

import (
	"math"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Page is an offset/limit window over a result set
type Page struct {
	Skip  int
	Limit int
}

// NewPage clamps skip and limit into a usable window
func NewPage(skip, limit int) Page {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Skip: skip, Limit: limit}
}

// TotalPages is ceil(total/limit); a zero limit counts as one page
func (p Page) TotalPages(total int64) int {
	if p.Limit <= 0 {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(p.Limit)))
}

// CurrentPage is the 1-based page the window starts on
func (p Page) CurrentPage() int {
	if p.Limit <= 0 {
		return 1
	}
	return p.Skip/p.Limit + 1
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	return db.Offset(p.Skip).Limit(p.Limit)
}

// PagedResult is a page of items plus the size of the unpaginated set
type PagedResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int   `json:"total_pages"`
}

func newPagedResult[T any](items []T, total int64, p Page) PagedResult[T] {
	if items == nil {
		items = []T{}
	}
	return PagedResult[T]{
		Items:      items,
		Total:      total,
		Page:       p.CurrentPage(),
		Size:       p.Limit,
		TotalPages: p.TotalPages(total),
	}
}
