package dto

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// PageQuery holds list paging parameters.
type PageQuery struct {
	Page  int
	Limit int
}

// ParsePageQuery reads page and limit from the query string, applying
// defaults and capping limit. Pages whose row offset would overflow are
// rejected.
func ParsePageQuery(c *fiber.Ctx) (PageQuery, error) {
	page, err := positiveQueryInt(c, "page", defaultPage)
	if err != nil {
		return PageQuery{}, err
	}
	limit, err := positiveQueryInt(c, "limit", defaultLimit)
	if err != nil {
		return PageQuery{}, err
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if page-1 > math.MaxInt/limit {
		return PageQuery{}, apperrors.NewValidationError("page", "page is out of range", nil)
	}
	return PageQuery{Page: page, Limit: limit}, nil
}

func positiveQueryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperrors.NewValidationError(key, key+" must be a positive integer", nil)
	}
	return n, nil
}

// Paginator is the page metadata block of list responses.
type Paginator struct {
	ItemCount   int  `json:"itemCount"`
	RowsPerPage int  `json:"rowsPerPage"`
	Page        int  `json:"page"`
	PageCount   int  `json:"pageCount"`
	PageCounter int  `json:"pageCounter"`
	HasPrev     bool `json:"hasPrev"`
	HasNext     bool `json:"hasNext"`
	Prev        *int `json:"prev"`
	Next        *int `json:"next"`
}

// PageResponse wraps one page of items.
type PageResponse[T any] struct {
	ItemsList []T       `json:"itemsList"`
	Paginator Paginator `json:"paginator"`
}

// NewPageResponse computes paginator fields from the total item count.
func NewPageResponse[T any](items []T, total, page, limit int) PageResponse[T] {
	if items == nil {
		items = []T{}
	}
	pageCount := 1
	if limit > 0 && total > 0 {
		pageCount = (total + limit - 1) / limit
	}
	p := Paginator{
		ItemCount:   total,
		RowsPerPage: limit,
		Page:        page,
		PageCount:   pageCount,
		PageCounter: (page-1)*limit + 1,
		HasPrev:     page > 1,
		HasNext:     page < pageCount,
	}
	if p.HasPrev {
		prev := page - 1
		p.Prev = &prev
	}
	if p.HasNext {
		next := page + 1
		p.Next = &next
	}
	return PageResponse[T]{ItemsList: items, Paginator: p}
}
