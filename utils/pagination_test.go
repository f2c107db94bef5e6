package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name                   string
		page, perPage          int
		total                  int64
		wantPages              int
		wantNext, wantPrev     bool
		wantStart, wantEnd     int64
		wantNextNo, wantPrevNo int
	}{
		{"first of many", 1, 5, 12, 3, true, false, 1, 5, 2, 0},
		{"middle", 2, 5, 12, 3, true, true, 6, 10, 3, 1},
		{"last partial", 3, 5, 12, 3, false, true, 11, 12, 0, 2},
		{"exact multiple", 2, 5, 10, 2, false, true, 6, 10, 0, 1},
		{"empty", 1, 5, 0, 0, false, false, 0, 0, 0, 0},
		{"past the end", 9, 5, 12, 3, false, true, 0, 0, 0, 8},
		{"zero page defaults to first", 0, 5, 3, 1, false, false, 1, 3, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.perPage, tt.total)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.total, p.TotalItems)
			assert.Equal(t, tt.wantNext, p.HasNext)
			assert.Equal(t, tt.wantPrev, p.HasPrev)
			assert.Equal(t, tt.wantStart, p.StartItem)
			assert.Equal(t, tt.wantEnd, p.EndItem)
			assert.Equal(t, tt.wantNextNo, p.Next)
			assert.Equal(t, tt.wantPrevNo, p.Prev)
		})
	}
}

func TestPaginationOffset(t *testing.T) {
	assert.Equal(t, 0, NewPagination(1, 5, 100).Offset())
	assert.Equal(t, 10, NewPagination(3, 5, 100).Offset())
}

func TestParsePage(t *testing.T) {
	assert.Equal(t, 1, ParsePage(""))
	assert.Equal(t, 1, ParsePage("abc"))
	assert.Equal(t, 1, ParsePage("-2"))
	assert.Equal(t, 4, ParsePage("4"))
}
