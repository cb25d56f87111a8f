package util

import "strconv"

const (
	// DefaultPageSize is the fixed page size of museum, category and user lists.
	DefaultPageSize = 30

	DefaultItemPageSize = 10
	MinItemPageSize     = 5
	MaxItemPageSize     = 30
)

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// Calculate turns a 1-based page and a size into offset and limit.
func Calculate(page, size int) (offset int, limit int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}

// ClampItemPageSize keeps an item page size inside [MinItemPageSize, MaxItemPageSize].
func ClampItemPageSize(size int) int {
	switch {
	case size <= 0:
		return DefaultItemPageSize
	case size < MinItemPageSize:
		return MinItemPageSize
	case size > MaxItemPageSize:
		return MaxItemPageSize
	}
	return size
}

func Meta(page, offset, limit int, total int64) map[string]any {
	if page < 1 {
		page = 1
	}
	return map[string]any{
		"page":        page,
		"size":        limit,
		"total":       total,
		"total_pages": (total + int64(limit) - 1) / int64(limit),
		"has_prev":    page > 1,
		"has_next":    int64(offset+limit) < total,
	}
}
