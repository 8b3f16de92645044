package models

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest is 1-based
type PageRequest struct {
	Page int
	Size int
}

// Normalize clamps page and size to supported values
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.Size <= 0:
		p.Size = DefaultPageSize
	case p.Size > MaxPageSize:
		p.Size = MaxPageSize
	}
	return p
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Size
}

type Page[T any] struct {
	Items      []T
	Page       int
	Size       int
	TotalItems int64
}

func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.TotalItems + int64(p.Size) - 1) / int64(p.Size))
}
