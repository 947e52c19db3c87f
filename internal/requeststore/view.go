// File: internal/requeststore/view.go
package requeststore

import (
	"slices"
	"sync"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/domain"
)

// StatusCounts holds per-status totals of an unfiltered collection. StatusAll is the total.
type StatusCounts map[domain.Status]int

// FilterByStatus returns the records whose status equals status. StatusAll and "" keep all.
func FilterByStatus[T domain.Record](records []T, status domain.Status) []T {
	if status == "" || status == domain.StatusAll {
		return slices.Clone(records)
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		if r.GetStatus() == status {
			out = append(out, r)
		}
	}
	return out
}

// CountByStatus counts records per status.
func CountByStatus[T domain.Record](records []T) StatusCounts {
	counts := StatusCounts{domain.StatusAll: len(records)}
	for _, r := range records {
		counts[r.GetStatus()]++
	}
	return counts
}

// Page is one page of a collection.
type Page[T any] struct {
	Items      []T                `json:"items"`
	TotalPages int                `json:"total_pages"`
	Page       int                `json:"page"`
	Pagination *common.Pagination `json:"pagination"`
}

// Paginate slices records into pages of pageSize and returns page, clamped to the
// available pages.
func Paginate[T any](records []T, pageSize, page int) Page[T] {
	if pageSize <= 0 {
		pageSize = common.DefaultPageSize
	}
	p := common.NewPagination(int64(len(records)), page, pageSize)

	start := (p.CurrentPage - 1) * pageSize
	end := min(start+pageSize, len(records))
	items := []T{}
	if start < end {
		items = slices.Clone(records[start:end])
	}
	return Page[T]{
		Items:      items,
		TotalPages: p.TotalPages,
		Page:       p.CurrentPage,
		Pagination: p,
	}
}

// View is the filter and page state of one list screen.
type View struct {
	mu       sync.Mutex
	initial  domain.Status
	status   domain.Status
	page     int
	pageSize int
}

// NewView starts on page 1 with no filter.
func NewView(pageSize int) *View {
	return NewFilteredView(pageSize, domain.StatusAll)
}

// NewFilteredView starts on page 1 filtered to status. Reset returns to that filter.
func NewFilteredView(pageSize int, status domain.Status) *View {
	if pageSize <= 0 {
		pageSize = common.DefaultPageSize
	}
	if status == "" {
		status = domain.StatusAll
	}
	return &View{initial: status, status: status, page: 1, pageSize: pageSize}
}

// SetStatus changes the filter. A different filter goes back to page 1.
func (v *View) SetStatus(status domain.Status) {
	if status == "" {
		status = domain.StatusAll
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if status != v.status {
		v.status = status
		v.page = 1
	}
}

func (v *View) SetPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if page < 1 {
		page = 1
	}
	v.page = page
}

// Reset restores the initial filter on page 1.
func (v *View) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = v.initial
	v.page = 1
}

func (v *View) Status() domain.Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

func (v *View) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// Listing is what a list screen renders.
type Listing[T any] struct {
	Page[T]
	Status domain.Status `json:"status"`
	Counts StatusCounts  `json:"counts"`
}

// Apply filters and paginates records with the view's state. The clamped page is kept.
func Apply[T domain.Record](v *View, records []T) Listing[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	page := Paginate(FilterByStatus(records, v.status), v.pageSize, v.page)
	v.page = page.Page
	return Listing[T]{
		Page:   page,
		Status: v.status,
		Counts: CountByStatus(records),
	}
}
