package analysis

import (
	"time"

	"github.com/mvirta/bodycomp-go/internal/cache"
	"github.com/mvirta/bodycomp-go/internal/conf"
	"github.com/mvirta/bodycomp-go/internal/errors"
	"github.com/mvirta/bodycomp-go/internal/metrics"
	"github.com/mvirta/bodycomp-go/internal/spine"
)

// NewOrchestrator builds a phase orchestrator from the application
// settings, with the built-in voxel counting engine and a disk cache
// under settings.Cache.Dir.
func NewOrchestrator(s *conf.Settings, cb Callback) (*Orchestrator, error) {
	if err := conf.ValidateSpine(&s.Spine); err != nil {
		return nil, errors.New(err).Category(errors.CategoryConfiguration).Build()
	}

	store, err := cache.New(s.Cache.Dir, time.Duration(s.Cache.MemoryTTLMinutes)*time.Minute)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		Store:  store,
		Engine: metrics.VoxelCountEngine{},
		Spine: spine.Options{
			Connectivity:     s.Spine.Connectivity,
			MinMaskPixels:    s.Spine.MinMaskPixels,
			ROIRadiusMM:      s.Spine.ROIRadiusMM,
			DropLoneTrailing: s.Spine.DropLoneTrailing,
		},
		StartLevel: s.Spine.StartLevel,
		EndLevel:   s.Spine.EndLevel,
		Callback:   cb,
	}, nil
}
