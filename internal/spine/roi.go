package spine

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/mvirta/bodycomp-go/internal/errors"
	"github.com/mvirta/bodycomp-go/internal/volume"
)

// ErrNoROIVoxels is returned when the ellipsoid membership test selects
// no voxels for a centroid, which happens for tiny labels at the volume
// boundary.
var ErrNoROIVoxels = errors.NewStd("no voxels in roi")

// ROI is the set of voxels inside a spherical region around a centroid.
// The sphere becomes an ellipsoid in voxel space when spacing is
// anisotropic.
type ROI struct {
	Voxels [][3]int
}

// SphericalROI builds an ROI of the given physical radius (mm) around
// the centroid, converting the radius to per-axis voxel counts using the
// volume spacing. The scan window is clamped to the volume bounds, so the
// ROI never indexes outside the volume.
func SphericalROI(img *volume.Volume, centroid [3]float64, radiusMM float64) (*ROI, error) {
	var radii [3]float64
	for a := 0; a < 3; a++ {
		spacing := img.Spacing[a]
		if spacing <= 0 {
			spacing = 1
		}
		radii[a] = radiusMM / spacing
	}

	var lo, hi [3]int
	for a := 0; a < 3; a++ {
		lo[a] = int(math.Floor(centroid[a] - radii[a]))
		hi[a] = lo[a] + 2*int(math.Ceil(radii[a]))
		if lo[a] < 0 {
			lo[a] = 0
		}
		if hi[a] > img.Shape[a]-1 {
			hi[a] = img.Shape[a] - 1
		}
	}

	roi := &ROI{}
	for i := lo[0]; i <= hi[0]; i++ {
		di := (float64(i) - centroid[0]) / radii[0]
		for j := lo[1]; j <= hi[1]; j++ {
			dj := (float64(j) - centroid[1]) / radii[1]
			for k := lo[2]; k <= hi[2]; k++ {
				dk := (float64(k) - centroid[2]) / radii[2]
				if di*di+dj*dj+dk*dk <= 1 {
					roi.Voxels = append(roi.Voxels, [3]int{i, j, k})
				}
			}
		}
	}
	if len(roi.Voxels) == 0 {
		return nil, errors.New(ErrNoROIVoxels).
			Category(errors.CategoryROI).
			Context("centroid", centroid).
			Build()
	}
	return roi, nil
}

// MeanIntensity samples the mean image value inside the ROI.
func (r *ROI) MeanIntensity(img *volume.Volume) float64 {
	values := make([]float64, len(r.Voxels))
	for i, v := range r.Voxels {
		values[i] = img.At(v[0], v[1], v[2])
	}
	return stat.Mean(values, nil)
}
