// internal/app/system/paging/paging.go
package paging

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the default number of rows in a paged list.
const PageSize = 20

// MaxPageSize caps page_size so a single request cannot pull a whole
// collection.
const MaxPageSize = 200

// MaxPage caps page so Skip stays well inside int range on every platform.
const MaxPage = math.MaxInt32 / MaxPageSize

// Params is a normalized page request (page is 1-based).
type Params struct {
	Page     int
	PageSize int
}

// Normalize clamps page to [1, MaxPage] and pageSize to [1, MaxPageSize],
// substituting PageSize for non-positive sizes.
func Normalize(page, pageSize int) Params {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if pageSize < 1 {
		pageSize = PageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Params{Page: page, PageSize: pageSize}
}

// Skip returns the number of rows before this page.
func (p Params) Skip() int64 {
	return int64(p.Page-1) * int64(p.PageSize)
}

// ApplyToFind sets skip/limit and a stable sort on a Find.
// Ties on sortField are broken by _id so pages never overlap.
func (p Params) ApplyToFind(find *options.FindOptions, sortField string, order int) {
	find.SetSort(bson.D{
		{Key: sortField, Value: order},
		{Key: "_id", Value: order},
	}).SetSkip(p.Skip()).SetLimit(int64(p.PageSize))
}

// Meta describes where a page sits in the full result set.
type Meta struct {
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// NewMeta computes page metadata: TotalPages = ceil(total / pageSize).
func NewMeta(total int64, p Params) Meta {
	p = Normalize(p.Page, p.PageSize)
	pages := int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	return Meta{
		TotalItems:  total,
		TotalPages:  pages,
		CurrentPage: p.Page,
		PageSize:    p.PageSize,
		HasNext:     p.Page < pages,
		HasPrevious: p.Page > 1,
	}
}

// Page is a slice of rows plus its metadata.
type Page[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}

// ParsePage reads the "page" and "page_size" query parameters.
// Missing or invalid values fall back to defaults.
func ParsePage(r *http.Request) Params {
	return Normalize(atoi(query.Get(r, "page")), atoi(query.Get(r, "page_size")))
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
