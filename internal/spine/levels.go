package spine

import (
	"fmt"

	"github.com/mvirta/bodycomp-go/internal/volume"
)

// Options control vertebra localization.
type Options struct {
	Connectivity  int // 4 or 8
	MinMaskPixels int // masks at or below this count are dropped
	ROIRadiusMM   float64
	// DropLoneTrailing drops the last processed level when its slice
	// held a single connected component. On abdominal-only scans the
	// topmost level often shows just the posterior process; thoracic
	// datasets normally never trigger this.
	DropLoneTrailing bool
}

// Vertebra is the record produced for one successfully processed level.
type Vertebra struct {
	Name          string
	Label         int
	SliceIndex    int        // sagittal centroid slice
	Centroid      [3]float64 // voxel coordinates (x, y, z)
	Up            int        // minimum nonzero index along the cranio-caudal axis
	Down          int        // maximum nonzero index along the cranio-caudal axis
	TwoComponents bool
	ROISize       int
	MeanIntensity float64
}

// Warning reports a level that was dropped without failing the run.
type Warning struct {
	Level  string
	Reason string
}

// Result aggregates the surviving vertebra records and the per-level
// warnings collected along the way.
type Result struct {
	Vertebrae map[string]*Vertebra
	Warnings  []Warning
}

func (r *Result) warnf(level, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{Level: level, Reason: fmt.Sprintf(format, args...)})
}

// Locate runs the full localization over a canonical bone segmentation:
// sagittal centroids, body isolation, extents and ROI intensity sampling
// against the canonical base image. Levels are processed in the given
// order; failures drop individual levels and are reported as warnings.
func Locate(boneSeg, img *volume.Volume, labels map[string]int, order []string, opts Options) *Result {
	res := &Result{Vertebrae: make(map[string]*Vertebra)}

	centroids, missing := Centroids(boneSeg, labels)
	for _, name := range missing {
		res.warnf(name, "label not found in segmentation volume")
	}

	type candidate struct {
		name string
		mask *Mask
		two  bool
	}
	var candidates []candidate

	for _, name := range order {
		label, ok := labels[name]
		if !ok {
			continue
		}
		slice, ok := centroids[name]
		if !ok {
			continue
		}
		mask := SagittalMask(boneSeg, slice, label)
		// Guards against spurious detections on boundary or thin
		// slices. Raising this breaks thick-slice datasets.
		if mask.Count() <= opts.MinMaskPixels {
			res.warnf(name, "mask too small at centroid slice (%d pixels)", mask.Count())
			continue
		}
		twoLargest, two := KeepTwoLargest(mask, opts.Connectivity)
		if two {
			twoLargest = RemovePosterior(twoLargest, opts.Connectivity)
		}
		candidates = append(candidates, candidate{name: name, mask: twoLargest, two: two})
	}

	// A lone component on the last processed level is the posterior
	// process of a truncated vertebra; drop the level when configured.
	if opts.DropLoneTrailing && len(candidates) > 0 {
		last := candidates[len(candidates)-1]
		if !last.two {
			res.warnf(last.name, "single connected component on last processed level, dropped")
			candidates = candidates[:len(candidates)-1]
		}
	}

	for _, cand := range candidates {
		comR, comC, ok := CenterOfMass(cand.mask, opts.Connectivity)
		if !ok {
			res.warnf(cand.name, "empty body mask after component filtering")
			continue
		}
		up, down, ok := cand.mask.UpDown()
		if !ok {
			res.warnf(cand.name, "empty body mask after component filtering")
			continue
		}
		slice := centroids[cand.name]
		centroid := [3]float64{float64(slice), comR, comC}

		roi, err := SphericalROI(img, centroid, opts.ROIRadiusMM)
		if err != nil {
			res.warnf(cand.name, "label too small at the boundary, dropped: %v", err)
			continue
		}

		res.Vertebrae[cand.name] = &Vertebra{
			Name:          cand.name,
			Label:         labels[cand.name],
			SliceIndex:    slice,
			Centroid:      centroid,
			Up:            up,
			Down:          down,
			TwoComponents: cand.two,
			ROISize:       len(roi.Voxels),
			MeanIntensity: roi.MeanIntensity(img),
		}
	}
	return res
}
