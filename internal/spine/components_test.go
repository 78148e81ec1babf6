package spine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// block sets a rectangle of pixels on the mask.
func block(m *Mask, r0, r1, c0, c1 int) {
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			m.Set(r, c, true)
		}
	}
}

func TestConnectedComponentsSortedBySize(t *testing.T) {
	m := NewMask(20, 20)
	block(m, 0, 1, 0, 1)   // 4 px
	block(m, 10, 15, 5, 9) // 30 px
	block(m, 4, 4, 18, 19) // 2 px

	comps := ConnectedComponents(m, 4)
	require.Len(t, comps, 3)
	assert.Equal(t, 30, comps[0].Size)
	assert.Equal(t, 4, comps[1].Size)
	assert.Equal(t, 2, comps[2].Size)
	assert.InDelta(t, 12.5, comps[0].CentroidR, 1e-9)
	assert.InDelta(t, 7.0, comps[0].CentroidC, 1e-9)
}

func TestConnectivityEight(t *testing.T) {
	// Two pixels touching only diagonally: one component under 8
	// connectivity, two under 4.
	m := NewMask(4, 4)
	m.Set(0, 0, true)
	m.Set(1, 1, true)

	assert.Len(t, ConnectedComponents(m, 4), 2)
	assert.Len(t, ConnectedComponents(m, 8), 1)
}

func TestKeepTwoLargest(t *testing.T) {
	m := NewMask(30, 30)
	block(m, 0, 4, 0, 4)    // 25 px
	block(m, 10, 19, 10, 19) // 100 px
	block(m, 25, 25, 25, 26) // 2 px, must be removed

	kept, two := KeepTwoLargest(m, 4)
	assert.True(t, two)
	assert.Equal(t, 125, kept.Count())
	assert.False(t, kept.At(25, 25))

	// Kept mask is a strict subset of the original.
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			if kept.At(r, c) {
				assert.True(t, m.At(r, c))
			}
		}
	}
}

func TestKeepTwoLargestSingleComponent(t *testing.T) {
	m := NewMask(10, 10)
	block(m, 2, 5, 2, 5)

	kept, two := KeepTwoLargest(m, 4)
	assert.False(t, two)
	assert.Equal(t, 16, kept.Count())
}

func TestRemovePosterior(t *testing.T) {
	m := NewMask(30, 30)
	block(m, 2, 5, 10, 15)   // posterior process, smaller row centroid
	block(m, 15, 24, 8, 17)  // vertebral body

	out := RemovePosterior(m, 4)
	assert.Equal(t, 100, out.Count())
	assert.False(t, out.At(3, 12))
	assert.True(t, out.At(20, 10))
}

func TestCenterOfMass(t *testing.T) {
	m := NewMask(10, 10)
	block(m, 2, 2, 2, 2) // centroid (2, 2)
	block(m, 6, 6, 8, 8) // centroid (6, 8)

	r, c, ok := CenterOfMass(m, 4)
	require.True(t, ok)
	assert.InDelta(t, 4.0, r, 1e-9)
	assert.InDelta(t, 5.0, c, 1e-9)

	_, _, ok = CenterOfMass(NewMask(3, 3), 4)
	assert.False(t, ok)
}

func TestUpDown(t *testing.T) {
	m := NewMask(10, 20)
	block(m, 3, 6, 4, 11)

	up, down, ok := m.UpDown()
	require.True(t, ok)
	assert.Equal(t, 4, up)
	assert.Equal(t, 11, down)
	assert.LessOrEqual(t, up, down)

	_, _, ok = NewMask(2, 2).UpDown()
	assert.False(t, ok)
}
