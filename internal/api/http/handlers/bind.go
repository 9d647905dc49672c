package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/scoo-app/scoo-api/internal/api/dto"
	"github.com/scoo-app/scoo-api/internal/service"
	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

// bind decodes the JSON body into dst and validates it.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError(apperrors.ScopeRequest, "Invalid payload", nil)
	}
	return dto.Validate(dst)
}

// listPage parses paging parameters and runs list for them.
func listPage[T any](c *fiber.Ctx, list func(page, limit int) (*service.Page[T], error)) (*service.Page[T], error) {
	q, err := dto.ParsePageQuery(c)
	if err != nil {
		return nil, err
	}
	return list(q.Page, q.Limit)
}

func pageResponse[T, R any](page *service.Page[T], convert func(T) R) dto.PageResponse[R] {
	items := make([]R, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, convert(item))
	}
	return dto.NewPageResponse(items, page.Total, page.Page, page.Limit)
}
