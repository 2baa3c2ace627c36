package pagination

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

type item struct{ id string }

func items(from, to int) []item {
	var out []item
	for i := from; i <= to; i++ {
		out = append(out, item{id: strconv.Itoa(i)})
	}
	return out
}

func itemID(i item) string { return i.id }

func TestMerge(t *testing.T) {
	tests := []struct {
		name      string
		a, b      []item
		limit     int
		count     int
		truncated bool
		display   string
	}{
		{"overlap beyond limit", items(1, 25), items(20, 29), 25, 30, true, "24+"},
		{"disjoint small", items(1, 3), items(4, 5), 25, 5, false, "5"},
		{"identical", items(1, 10), items(1, 10), 25, 10, false, "10"},
		{"exactly limit", items(1, 20), items(16, 25), 25, 25, true, "24+"},
		{"one below limit", items(1, 20), items(16, 24), 25, 24, false, "24"},
		{"both empty", nil, nil, 25, 0, false, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Merge(Ready(tt.a), Ready(tt.b), itemID, tt.limit)
			assert.True(t, m.Available)
			assert.Equal(t, tt.count, m.Count)
			assert.Equal(t, tt.truncated, m.Truncated)
			assert.Equal(t, tt.display, m.Display())
		})
	}
}

func TestMergePending(t *testing.T) {
	m := Merge(Pending[item](), Ready(items(1, 3)), itemID, 25)
	assert.False(t, m.Available)
	assert.Equal(t, 0, m.Count)
	assert.Equal(t, "Loading…", m.Display())

	m = Merge(Ready([]item{}), Pending[item](), itemID, 25)
	assert.False(t, m.Available)

	empty := Merge(Ready([]item{}), Ready([]item{}), itemID, 25)
	assert.True(t, empty.Available, "no items is not the same as unknown")
}

func TestCountLabel(t *testing.T) {
	assert.Equal(t, "24+", CountLabel(25, 25))
	assert.Equal(t, "24", CountLabel(24, 25))
	assert.Equal(t, "0", CountLabel(0, 25))
}
