package spine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvirta/bodycomp-go/internal/anatomy"
	"github.com/mvirta/bodycomp-go/internal/volume"
)

// levelSpec places one vertebra into the synthetic segmentation: a
// 10-row body block over the given column range plus, optionally, a
// small posterior process block.
type levelSpec struct {
	c0, c1      int
	withProcess bool
}

func syntheticSpine(t *testing.T, levels map[string]levelSpec) (seg, img *volume.Volume) {
	t.Helper()
	seg = volume.New(9, 40, 60)
	seg.Canonical = true
	img = volume.New(9, 40, 60)
	img.Canonical = true
	for i := range img.Data {
		img.Data[i] = 100
	}

	for name, spec := range levels {
		label, ok := anatomy.VertebraLabel(name)
		require.True(t, ok, "unknown level %s", name)
		for x := 3; x <= 5; x++ {
			for r := 15; r <= 24; r++ {
				for c := spec.c0; c <= spec.c1; c++ {
					seg.Set(x, r, c, float64(label))
				}
			}
			if spec.withProcess {
				for r := 2; r <= 5; r++ {
					for c := spec.c0 + 2; c <= spec.c1-2; c++ {
						seg.Set(x, r, c, float64(label))
					}
				}
			}
		}
	}
	return seg, img
}

func defaultOptions() Options {
	return Options{
		Connectivity:     4,
		MinMaskPixels:    50,
		ROIRadiusMM:      3,
		DropLoneTrailing: true,
	}
}

func TestLocateIsolatesBodies(t *testing.T) {
	seg, img := syntheticSpine(t, map[string]levelSpec{
		"T12": {c0: 10, c1: 19, withProcess: true},
		"T1":  {c0: 40, c1: 49, withProcess: true},
	})

	res := Locate(seg, img, anatomy.VertebraLabels(), anatomy.VertebraNames, defaultOptions())

	require.Contains(t, res.Vertebrae, "T12")
	require.Contains(t, res.Vertebrae, "T1")

	t12 := res.Vertebrae["T12"]
	assert.Equal(t, 4, t12.SliceIndex)
	assert.Equal(t, 10, t12.Up)
	assert.Equal(t, 19, t12.Down)
	assert.LessOrEqual(t, t12.Up, t12.Down)
	assert.True(t, t12.TwoComponents)
	// Center of mass sits on the body block, not the deleted process.
	assert.InDelta(t, 19.5, t12.Centroid[1], 1e-9)
	assert.InDelta(t, 14.5, t12.Centroid[2], 1e-9)
	assert.InDelta(t, 100.0, t12.MeanIntensity, 1e-9)
	assert.Positive(t, t12.ROISize)

	t1 := res.Vertebrae["T1"]
	assert.Equal(t, 40, t1.Up)
	assert.Equal(t, 49, t1.Down)
}

func TestLocateSkipsAbsentLabels(t *testing.T) {
	seg, img := syntheticSpine(t, map[string]levelSpec{
		"T12": {c0: 10, c1: 19, withProcess: true},
	})

	res := Locate(seg, img, anatomy.VertebraLabels(), anatomy.VertebraNames, defaultOptions())

	assert.Len(t, res.Vertebrae, 1)
	// 24 missing levels produce warnings, not failures.
	assert.GreaterOrEqual(t, len(res.Warnings), 24)
}

func TestLocateDropsLoneTrailingLevel(t *testing.T) {
	// T1 is the last processed level and has no posterior process, so a
	// single connected component remains: the abdominal-dataset
	// heuristic drops it.
	levels := map[string]levelSpec{
		"T12": {c0: 10, c1: 19, withProcess: true},
		"T1":  {c0: 40, c1: 49, withProcess: false},
	}

	seg, img := syntheticSpine(t, levels)
	res := Locate(seg, img, anatomy.VertebraLabels(), anatomy.VertebraNames, defaultOptions())
	assert.NotContains(t, res.Vertebrae, "T1")
	assert.Contains(t, res.Vertebrae, "T12")

	// With the policy disabled the level survives, flagged ambiguous.
	opts := defaultOptions()
	opts.DropLoneTrailing = false
	seg, img = syntheticSpine(t, levels)
	res = Locate(seg, img, anatomy.VertebraLabels(), anatomy.VertebraNames, opts)
	require.Contains(t, res.Vertebrae, "T1")
	assert.False(t, res.Vertebrae["T1"].TwoComponents)
}

func TestLocateLoneComponentInMiddleIsKept(t *testing.T) {
	// The heuristic applies only to the last processed level; a lone
	// component earlier in the order is retained.
	seg, img := syntheticSpine(t, map[string]levelSpec{
		"T12": {c0: 10, c1: 19, withProcess: false},
		"T1":  {c0: 40, c1: 49, withProcess: true},
	})

	res := Locate(seg, img, anatomy.VertebraLabels(), anatomy.VertebraNames, defaultOptions())
	require.Contains(t, res.Vertebrae, "T12")
	assert.False(t, res.Vertebrae["T12"].TwoComponents)
	assert.Contains(t, res.Vertebrae, "T1")
}

func TestLocateDropsThinMasks(t *testing.T) {
	// 10 rows x 5 cols = 50 pixels, not strictly greater than the
	// threshold, so the level is dropped.
	seg, img := syntheticSpine(t, map[string]levelSpec{
		"T12": {c0: 10, c1: 14, withProcess: false},
	})

	res := Locate(seg, img, anatomy.VertebraLabels(), anatomy.VertebraNames, defaultOptions())
	assert.Empty(t, res.Vertebrae)
}

func TestSagittalCentroidAbsentLabel(t *testing.T) {
	seg := volume.New(4, 4, 4)
	_, ok := SagittalCentroid(seg, 7)
	assert.False(t, ok)
}
