// Package spine locates vertebra levels on a labeled spine segmentation:
// per-level sagittal centroids, connected-component isolation of the
// vertebral body, cranio-caudal extents and spherical ROI sampling.
package spine

import (
	"github.com/mvirta/bodycomp-go/internal/volume"
)

// Mask is a 2D binary mask on the sagittal plane. Rows follow the
// posterior-to-anterior axis, columns the inferior-to-superior axis.
type Mask struct {
	Rows, Cols int
	pix        []bool
}

// NewMask allocates an empty mask.
func NewMask(rows, cols int) *Mask {
	return &Mask{Rows: rows, Cols: cols, pix: make([]bool, rows*cols)}
}

// At reports whether the pixel at (r, c) is set.
func (m *Mask) At(r, c int) bool {
	return m.pix[r*m.Cols+c]
}

// Set sets the pixel at (r, c).
func (m *Mask) Set(r, c int, v bool) {
	m.pix[r*m.Cols+c] = v
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, p := range m.pix {
		if p {
			n++
		}
	}
	return n
}

// SagittalMask extracts the binary mask of a label on the sagittal slice
// at x. The volume must be canonical.
func SagittalMask(seg *volume.Volume, x, label int) *Mask {
	m := NewMask(seg.Shape[1], seg.Shape[2])
	for c := 0; c < seg.Shape[2]; c++ {
		for r := 0; r < seg.Shape[1]; r++ {
			if seg.LabelAt(x, r, c) == label {
				m.Set(r, c, true)
			}
		}
	}
	return m
}

// UpDown returns the minimum and maximum nonzero column index, the
// cranio-caudal extent of the mask. The second return is false for an
// empty mask. min <= max always holds.
func (m *Mask) UpDown() (up, down int, ok bool) {
	up, down = m.Cols, -1
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			if m.At(r, c) {
				if c < up {
					up = c
				}
				if c > down {
					down = c
				}
			}
		}
	}
	if down < 0 {
		return 0, 0, false
	}
	return up, down, true
}
