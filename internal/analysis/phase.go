package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mvirta/bodycomp-go/internal/anatomy"
	"github.com/mvirta/bodycomp-go/internal/cache"
	"github.com/mvirta/bodycomp-go/internal/conf"
	"github.com/mvirta/bodycomp-go/internal/errors"
	"github.com/mvirta/bodycomp-go/internal/metrics"
	"github.com/mvirta/bodycomp-go/internal/spine"
	"github.com/mvirta/bodycomp-go/internal/volume"
)

// PhaseResult carries the two scalars the prediction model consumes:
// skeletal muscle and subcutaneous adipose tissue volume (cm³) over the
// T1-T12 range.
type PhaseResult struct {
	SM float64 `json:"sm"`
	SA float64 `json:"sa"`
}

// Orchestrator produces a PhaseResult for one timepoint. It owns no
// global state: the cache store and engine are injected once per run.
type Orchestrator struct {
	Store      *cache.Store
	Engine     metrics.Engine
	Spine      spine.Options
	StartLevel string // superior range boundary, T1 by convention
	EndLevel   string // inferior range boundary, T12 by convention
	Callback   Callback
}

// ValidateInput checks that every required artifact of a timepoint
// exists, naming the missing one. Runs before any computation.
func ValidateInput(name string, in *conf.PhaseInput) error {
	checks := []struct {
		label, path string
	}{
		{name + " image", in.Image},
		{name + " bone segmentation", in.Bone},
		{name + " composition segmentation", in.Composition},
	}
	for _, c := range checks {
		if c.path == "" {
			return errors.Newf("%s file is required", c.label).
				Category(errors.CategoryConfiguration).
				Build()
		}
		if _, err := os.Stat(c.path); err != nil {
			return errors.New(fmt.Errorf("%s does not exist: %s", c.label, c.path)).
				Category(errors.CategoryConfiguration).
				Context("path", c.path).
				Build()
		}
	}
	return nil
}

func loadCanonical(path string) (*volume.Volume, error) {
	v, err := volume.Load(path)
	if err != nil {
		return nil, err
	}
	return volume.ToCanonical(v)
}

// Run computes (or loads from cache) the PhaseResult for one timepoint.
// digest is the content digest of the image file, computed by the
// caller. The second return reports whether the cache served the result.
func (o *Orchestrator) Run(ctx context.Context, task, digest string, in *conf.PhaseInput) (*PhaseResult, bool, error) {
	log := GetLogger()

	if data, ok, err := o.Store.Get(digest); err == nil && ok {
		var res PhaseResult
		if err := json.Unmarshal(data, &res); err == nil {
			log.Info("phase served from cache", "task", task, "digest", digest)
			o.Callback.printf("Using cached results for %s", digest)
			return &res, true, nil
		}
		// Corrupt entry: fall through and recompute.
		log.Warn("discarding unreadable cache entry", "digest", digest)
	} else if err != nil {
		log.Warn("cache read failed, recomputing", "digest", digest, "error", err)
	}

	o.Callback.printf("Computing results for %s", digest)
	res, err := o.compute(ctx, task, in)
	if err != nil {
		return nil, false, err
	}

	data, err := json.Marshal(res)
	if err != nil {
		return nil, false, err
	}
	if err := o.Store.Put(digest, data); err != nil {
		// A failed cache write costs a recomputation later, nothing more.
		log.Warn("cache write failed", "digest", digest, "error", err)
	}
	return res, false, nil
}

func (o *Orchestrator) compute(ctx context.Context, task string, in *conf.PhaseInput) (*PhaseResult, error) {
	log := GetLogger()

	img, err := loadCanonical(in.Image)
	if err != nil {
		return nil, err
	}
	boneSeg, err := loadCanonical(in.Bone)
	if err != nil {
		return nil, err
	}
	compSeg, err := loadCanonical(in.Composition)
	if err != nil {
		return nil, err
	}

	located := spine.Locate(boneSeg, img, anatomy.VertebraLabels(), anatomy.VertebraNames, o.Spine)
	for _, w := range located.Warnings {
		log.Warn("vertebra level dropped", "task", task, "level", w.Level, "reason", w.Reason)
	}

	start, ok := located.Vertebrae[o.StartLevel]
	if !ok {
		return nil, errors.Newf("start boundary level %s was not detected", o.StartLevel).
			Category(errors.CategoryBoundary).
			Context("task", task).
			Build()
	}
	end, ok := located.Vertebrae[o.EndLevel]
	if !ok {
		return nil, errors.Newf("end boundary level %s was not detected", o.EndLevel).
			Category(errors.CategoryBoundary).
			Context("task", task).
			Build()
	}

	// Volume convention runs superior to inferior in descending index:
	// the superior boundary must sit above the inferior one.
	startSlice := start.Down
	endSlice := end.Up
	if startSlice <= endSlice {
		return nil, errors.Newf("start and end position may be reversed: %s at %d, %s at %d",
			o.StartLevel, startSlice, o.EndLevel, endSlice).
			Category(errors.CategoryBoundary).
			Context("task", task).
			Build()
	}

	imgSlab, err := img.Slab(endSlice, startSlice+1)
	if err != nil {
		return nil, err
	}
	compSlab, err := compSeg.Slab(endSlice, startSlice+1)
	if err != nil {
		return nil, err
	}

	tissueLabels := anatomy.TissueLabels()
	oneHot := metrics.NewOneHot(compSlab, tissueLabels)
	results, err := o.Engine.Compute(ctx, imgSlab, oneHot, tissueLabels)
	if err != nil {
		return nil, errors.New(fmt.Errorf("metrics engine: %w", err)).
			Category(errors.CategoryMetrics).
			Context("task", task).
			Build()
	}

	muscle, ok := results["Muscle"]
	if !ok {
		return nil, errors.Newf("metrics engine returned no Muscle volume").
			Category(errors.CategoryMetrics).
			Build()
	}
	sat, ok := results["SAT"]
	if !ok {
		return nil, errors.Newf("metrics engine returned no SAT volume").
			Category(errors.CategoryMetrics).
			Build()
	}

	log.Info("phase computed",
		"task", task,
		"range_start", startSlice,
		"range_end", endSlice,
		"sm", muscle.Volume,
		"sa", sat.Volume)

	return &PhaseResult{SM: muscle.Volume, SA: sat.Volume}, nil
}
