package volume

import (
	"math"

	"github.com/mvirta/bodycomp-go/internal/errors"
)

// ToCanonical reorients the volume so that axis 0 increases left to
// right, axis 1 posterior to anterior and axis 2 inferior to superior,
// matching nibabel's closest-canonical convention. The input volume is
// not modified; an already canonical volume is returned as is.
func ToCanonical(v *Volume) (*Volume, error) {
	if v.Canonical {
		return v, nil
	}

	// For each voxel axis find the dominant world axis and its sign.
	var worldAxis [3]int
	var flip [3]bool
	var claimed [3]bool
	for j := 0; j < 3; j++ {
		best := 0
		bestAbs := math.Abs(v.Dir[0][j])
		for i := 1; i < 3; i++ {
			if a := math.Abs(v.Dir[i][j]); a > bestAbs {
				best, bestAbs = i, a
			}
		}
		if bestAbs == 0 || claimed[best] {
			return nil, errors.Newf("degenerate direction matrix, cannot determine axis orientation").
				Category(errors.CategoryVolumeLoad).
				Build()
		}
		claimed[best] = true
		worldAxis[j] = best
		flip[j] = v.Dir[best][j] < 0
	}

	out := &Volume{Canonical: true, Dir: identityDir()}
	for j := 0; j < 3; j++ {
		w := worldAxis[j]
		out.Shape[w] = v.Shape[j]
		spacing := v.Spacing[j]
		if spacing == 0 {
			spacing = 1 // missing spacing metadata, substitute unit default
		}
		out.Spacing[w] = spacing
	}
	out.Data = make([]float32, v.NumVoxels())

	var dst [3]int
	for k := 0; k < v.Shape[2]; k++ {
		for j := 0; j < v.Shape[1]; j++ {
			for i := 0; i < v.Shape[0]; i++ {
				src := [3]int{i, j, k}
				for axis := 0; axis < 3; axis++ {
					idx := src[axis]
					if flip[axis] {
						idx = v.Shape[axis] - 1 - idx
					}
					dst[worldAxis[axis]] = idx
				}
				out.Data[out.index(dst[0], dst[1], dst[2])] = v.Data[v.index(i, j, k)]
			}
		}
	}
	return out, nil
}
