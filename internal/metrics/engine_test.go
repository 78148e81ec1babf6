package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvirta/bodycomp-go/internal/anatomy"
	"github.com/mvirta/bodycomp-go/internal/volume"
)

func TestOneHotChannels(t *testing.T) {
	seg := volume.New(2, 2, 2)
	seg.Set(0, 0, 0, 1) // Muscle
	seg.Set(1, 0, 0, 4) // SAT
	seg.Set(0, 1, 0, 4) // SAT

	oh := NewOneHot(seg, anatomy.TissueLabels())

	muscle := oh.Channel("Muscle")
	require.NotNil(t, muscle)
	assert.Equal(t, 1, countSet(muscle))
	assert.Equal(t, 2, countSet(oh.Channel("SAT")))
	assert.Equal(t, 0, countSet(oh.Channel("Bone")))
	assert.Nil(t, oh.Channel("NotATissue"))
}

func countSet(ch []bool) int {
	n := 0
	for _, b := range ch {
		if b {
			n++
		}
	}
	return n
}

func TestVoxelCountEngine(t *testing.T) {
	img := volume.New(4, 4, 4)
	img.Spacing = [3]float64{2, 2, 5} // 20 mm³ per voxel
	seg := volume.New(4, 4, 4)
	for i := 0; i < 10; i++ {
		seg.Data[i] = 1 // Muscle
		img.Data[i] = 50
	}
	for i := 10; i < 14; i++ {
		seg.Data[i] = 4 // SAT
		img.Data[i] = -90
	}

	oh := NewOneHot(seg, anatomy.TissueLabels())
	results, err := VoxelCountEngine{}.Compute(context.Background(), img, oh, anatomy.TissueLabels())
	require.NoError(t, err)

	assert.InDelta(t, 10*20.0/1000.0, results["Muscle"].Volume, 1e-9)
	assert.InDelta(t, 50.0, results["Muscle"].MeanIntensity, 1e-9)
	assert.Equal(t, 10, results["Muscle"].VoxelCount)
	assert.InDelta(t, 4*20.0/1000.0, results["SAT"].Volume, 1e-9)
	assert.InDelta(t, -90.0, results["SAT"].MeanIntensity, 1e-9)
	assert.Equal(t, 0, results["VAT"].VoxelCount)
}

func TestVoxelCountEngineShapeMismatch(t *testing.T) {
	img := volume.New(2, 2, 2)
	seg := volume.New(3, 3, 3)
	oh := NewOneHot(seg, anatomy.TissueLabels())

	_, err := VoxelCountEngine{}.Compute(context.Background(), img, oh, anatomy.TissueLabels())
	assert.Error(t, err)
}
