package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	offset, limit := Calculate(0, 0)
	assert.Equal(t, 0, offset)
	assert.Equal(t, DefaultPageSize, limit)

	offset, limit = Calculate(3, 10)
	assert.Equal(t, 20, offset)
	assert.Equal(t, 10, limit)
}

func TestClampItemPageSize(t *testing.T) {
	assert.Equal(t, 10, ClampItemPageSize(0))
	assert.Equal(t, 5, ClampItemPageSize(2))
	assert.Equal(t, 30, ClampItemPageSize(100))
	assert.Equal(t, 12, ClampItemPageSize(12))
}

func TestMeta(t *testing.T) {
	m := Meta(2, 30, 30, 61)
	assert.Equal(t, int64(3), m["total_pages"])
	assert.Equal(t, true, m["has_prev"])
	assert.Equal(t, true, m["has_next"])

	m = Meta(1, 0, 30, 0)
	assert.Equal(t, int64(0), m["total_pages"])
	assert.Equal(t, false, m["has_next"])
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 4, ParseIntDefault("4", 1))
	assert.Equal(t, 1, ParseIntDefault("x", 1))
	assert.Equal(t, 1, ParseIntDefault("", 1))
}
