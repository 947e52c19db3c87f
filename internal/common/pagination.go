// File: internal/common/pagination.go
package common

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination struct for paginated API responses
type Pagination struct {
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// TotalPages returns ceil(totalItems/pageSize). An empty collection has zero pages.
func TotalPages(totalItems int64, pageSize int) int {
	if pageSize <= 0 || totalItems <= 0 {
		return 0
	}
	return int((totalItems + int64(pageSize) - 1) / int64(pageSize))
}

// ClampPage keeps page inside [1, totalPages]. With zero pages the only valid page is 1.
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if totalPages > 0 && page > totalPages {
		return totalPages
	}
	if totalPages == 0 {
		return 1
	}
	return page
}

// NewPagination creates a pagination object. page is clamped to the available pages.
func NewPagination(totalItems int64, page, pageSize int) *Pagination {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	totalPages := TotalPages(totalItems, pageSize)
	page = ClampPage(page, totalPages)

	return &Pagination{
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		CurrentPage: page,
		PageSize:    pageSize,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// GetPaginationParams extracts pagination parameters from Gin context.
// ok is false when the caller did not send a page parameter at all.
func GetPaginationParams(c *gin.Context, defaultPageSize int) (page, pageSize int, ok bool) {
	if defaultPageSize <= 0 {
		defaultPageSize = DefaultPageSize
	}
	rawPage, ok := c.GetQuery("page")
	page, err := strconv.Atoi(rawPage)
	if err != nil || page <= 0 {
		page = DefaultPage
	}

	pageSize, err = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize, ok
}
