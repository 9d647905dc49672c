package service

import (
	"math"

	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

// Page is one 1-based page of a listing together with the total row count.
type Page[T any] struct {
	Items []T
	Total int
	Page  int
	Limit int
}

// pageOffset converts a 1-based page into a row offset. Pages whose offset
// would not fit in an int are rejected rather than wrapped.
func pageOffset(page, limit int) (int, error) {
	if page < 1 || limit < 1 {
		return 0, apperrors.NewValidationError("page", "Page and limit must be positive", nil)
	}
	if page-1 > math.MaxInt/limit {
		return 0, apperrors.NewValidationError("page", "Page is out of range", map[string]any{"page": page, "limit": limit})
	}
	return (page - 1) * limit, nil
}

// listPage runs a repository listing for the requested page.
func listPage[T any](page, limit int, list func(offset, limit int) ([]T, int, error)) (*Page[T], error) {
	offset, err := pageOffset(page, limit)
	if err != nil {
		return nil, err
	}
	items, total, err := list(offset, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Total: total, Page: page, Limit: limit}, nil
}
