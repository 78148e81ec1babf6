// Package metrics defines the tissue volumetrics engine boundary. The
// pipeline treats the engine as opaque and only reads the Muscle and SAT
// volumes from its output; a built-in voxel-counting engine is provided
// so the binary runs without an external engine.
package metrics

import (
	"context"

	"gonum.org/v1/gonum/stat"

	"github.com/mvirta/bodycomp-go/internal/errors"
	"github.com/mvirta/bodycomp-go/internal/volume"
)

// TissueMetrics is the per-tissue result produced by an engine.
type TissueMetrics struct {
	Volume        float64 `json:"volume"` // cm³
	MeanIntensity float64 `json:"meanintensity"`
	VoxelCount    int     `json:"voxelcount"`
}

// Engine computes per-tissue volumetrics from an image subvolume and a
// one-hot composition mask.
type Engine interface {
	Compute(ctx context.Context, img *volume.Volume, oneHot *OneHot, labels map[string]int) (map[string]TissueMetrics, error)
}

// OneHot is a multi-channel binary volume, one channel per tissue label.
type OneHot struct {
	Shape    [3]int
	channels map[string][]bool
}

// NewOneHot builds the one-hot encoding of a labeled composition
// segmentation.
func NewOneHot(seg *volume.Volume, labels map[string]int) *OneHot {
	oh := &OneHot{
		Shape:    seg.Shape,
		channels: make(map[string][]bool, len(labels)),
	}
	n := seg.NumVoxels()
	byLabel := make(map[int][]bool, len(labels))
	for name, label := range labels {
		ch := make([]bool, n)
		oh.channels[name] = ch
		byLabel[label] = ch
	}
	for i, v := range seg.Data {
		if ch, ok := byLabel[int(v+0.5)]; ok && v > 0 {
			ch[i] = true
		}
	}
	return oh
}

// Channel returns the binary channel for a tissue name, nil when absent.
func (o *OneHot) Channel(name string) []bool {
	return o.channels[name]
}

// VoxelCountEngine is the built-in engine: tissue volume is voxel count
// times physical voxel volume.
type VoxelCountEngine struct{}

// Compute implements Engine.
func (VoxelCountEngine) Compute(ctx context.Context, img *volume.Volume, oneHot *OneHot, labels map[string]int) (map[string]TissueMetrics, error) {
	if img.Shape != oneHot.Shape {
		return nil, errors.Newf("image shape %v does not match composition mask shape %v", img.Shape, oneHot.Shape).
			Category(errors.CategoryMetrics).
			Build()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	voxelCM3 := img.VoxelVolumeMM3() / 1000.0
	out := make(map[string]TissueMetrics, len(labels))
	for name := range labels {
		ch := oneHot.Channel(name)
		var values []float64
		count := 0
		for i, set := range ch {
			if set {
				count++
				values = append(values, float64(img.Data[i]))
			}
		}
		tm := TissueMetrics{
			Volume:     float64(count) * voxelCM3,
			VoxelCount: count,
		}
		if count > 0 {
			tm.MeanIntensity = stat.Mean(values, nil)
		}
		out[name] = tm
	}
	return out, nil
}
