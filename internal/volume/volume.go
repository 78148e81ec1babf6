// Package volume provides the 3D volume type used throughout the
// pipeline, NIfTI-1 file I/O and canonical RAS+ reorientation.
package volume

import (
	"github.com/mvirta/bodycomp-go/internal/errors"
)

// Volume is a 3D voxel array with physical spacing and orientation
// metadata. Data is stored in NIfTI order: the first axis varies fastest.
// After Canonical() axis 0 runs left to right, axis 1 posterior to
// anterior and axis 2 inferior to superior; volumes are treated as
// immutable from that point on.
type Volume struct {
	Data    []float32
	Shape   [3]int
	Spacing [3]float64 // mm per voxel along each axis
	// Dir maps voxel axes to world axes: column j holds the world
	// direction in which voxel axis j increases.
	Dir       [3][3]float64
	Canonical bool
}

// New allocates a zero-filled volume with unit spacing and identity
// orientation.
func New(nx, ny, nz int) *Volume {
	return &Volume{
		Data:    make([]float32, nx*ny*nz),
		Shape:   [3]int{nx, ny, nz},
		Spacing: [3]float64{1, 1, 1},
		Dir:     identityDir(),
	}
}

func identityDir() [3][3]float64 {
	return [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// NumVoxels returns the total voxel count.
func (v *Volume) NumVoxels() int {
	return v.Shape[0] * v.Shape[1] * v.Shape[2]
}

func (v *Volume) index(i, j, k int) int {
	return i + v.Shape[0]*(j+v.Shape[1]*k)
}

// At returns the voxel value at (i, j, k).
func (v *Volume) At(i, j, k int) float64 {
	return float64(v.Data[v.index(i, j, k)])
}

// Set stores a voxel value at (i, j, k).
func (v *Volume) Set(i, j, k int, val float64) {
	v.Data[v.index(i, j, k)] = float32(val)
}

// LabelAt returns the voxel value at (i, j, k) rounded to an integer
// label. Segmentation volumes are frequently stored as floats on disk.
func (v *Volume) LabelAt(i, j, k int) int {
	return int(v.Data[v.index(i, j, k)] + 0.5)
}

// Slab returns a copy of the volume restricted to axial slices
// [lo, hi) along axis 2. Spacing and orientation carry over.
func (v *Volume) Slab(lo, hi int) (*Volume, error) {
	if lo < 0 || hi > v.Shape[2] || lo >= hi {
		return nil, errors.Newf("invalid axial slab [%d, %d) for %d slices", lo, hi, v.Shape[2]).
			Category(errors.CategoryValidation).
			Build()
	}
	out := &Volume{
		Data:      make([]float32, v.Shape[0]*v.Shape[1]*(hi-lo)),
		Shape:     [3]int{v.Shape[0], v.Shape[1], hi - lo},
		Spacing:   v.Spacing,
		Dir:       v.Dir,
		Canonical: v.Canonical,
	}
	sliceLen := v.Shape[0] * v.Shape[1]
	for k := lo; k < hi; k++ {
		src := v.Data[k*sliceLen : (k+1)*sliceLen]
		dst := out.Data[(k-lo)*sliceLen : (k-lo+1)*sliceLen]
		copy(dst, src)
	}
	return out, nil
}

// VoxelVolumeMM3 returns the physical volume of a single voxel in mm³.
func (v *Volume) VoxelVolumeMM3() float64 {
	return v.Spacing[0] * v.Spacing[1] * v.Spacing[2]
}
