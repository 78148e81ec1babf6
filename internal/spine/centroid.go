package spine

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/mvirta/bodycomp-go/internal/volume"
)

// SagittalCentroid computes the weighted mean sagittal slice index of a
// label: voxel counts are projected along axis 0 and the normalized
// projection weights the slice positions. The second return is false
// when the label is absent from the volume.
func SagittalCentroid(seg *volume.Volume, label int) (int, bool) {
	nx := seg.Shape[0]
	counts := make([]float64, nx)
	positions := make([]float64, nx)
	total := 0.0
	for i := 0; i < nx; i++ {
		n := 0
		for k := 0; k < seg.Shape[2]; k++ {
			for j := 0; j < seg.Shape[1]; j++ {
				if seg.LabelAt(i, j, k) == label {
					n++
				}
			}
		}
		counts[i] = float64(n)
		positions[i] = float64(i)
		total += counts[i]
	}
	if total == 0 {
		return 0, false
	}
	return int(math.Trunc(stat.Mean(positions, counts))), true
}

// Centroids computes the sagittal centroid slice per vertebra name.
// Labels with no voxels anywhere in the volume are omitted and reported
// in the second return.
func Centroids(seg *volume.Volume, labels map[string]int) (map[string]int, []string) {
	out := make(map[string]int, len(labels))
	var missing []string
	for name, label := range labels {
		pos, ok := SagittalCentroid(seg, label)
		if !ok {
			missing = append(missing, name)
			continue
		}
		out[name] = pos
	}
	return out, missing
}
