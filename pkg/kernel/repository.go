package kernel

import "context"

// Repository is the storage contract shared by persisted entities. F is the
// entity's lookup filter; FindOne and Delete match at most one row.
type Repository[T any, F any] interface {
	Create(ctx context.Context, entity *T) error
	FindOne(ctx context.Context, filter F) (*T, error)
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, filter F) error
}

// Page represents pagination metadata
type Page struct {
	Number int `json:"page"`
	Size   int `json:"page_size"`
	Total  int `json:"total"`
	Pages  int `json:"pages"`
}

// Paginated is a page of items plus its metadata
type Paginated[T any] struct {
	Items []T  `json:"items"`
	Page  Page `json:"pagination"`
	Empty bool `json:"empty"`
}

// NewPaginated creates a new paginated result with calculated fields
func NewPaginated[T any](items []T, page, size, total int) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	return Paginated[T]{
		Items: items,
		Page:  Page{Number: page, Size: size, Total: total, Pages: pages},
		Empty: len(items) == 0,
	}
}

// PaginationOptions holds options for pagination queries
type PaginationOptions struct {
	Page     int
	PageSize int
}

// Normalize clamps page to >= 1 and size to [1, max].
func (o PaginationOptions) Normalize(max int) PaginationOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 || o.PageSize > max {
		o.PageSize = max
	}
	return o
}

// Offset is the SQL offset for the page
func (o PaginationOptions) Offset() int {
	return (o.Page - 1) * o.PageSize
}
