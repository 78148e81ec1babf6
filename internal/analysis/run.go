package analysis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mvirta/bodycomp-go/internal/cache"
	"github.com/mvirta/bodycomp-go/internal/conf"
	"github.com/mvirta/bodycomp-go/internal/errors"
)

// Source tells how a phase outcome was obtained.
type Source string

const (
	SourceFresh  Source = "fresh"
	SourceCache  Source = "cache"
	SourceFailed Source = "failed"
)

// PhaseOutcome is the per-timepoint result of a coordinated run.
type PhaseOutcome struct {
	Name   string
	Digest string
	Result *PhaseResult
	Source Source
	Err    error
}

// Coordinator executes the pre and post phases of one run.
type Coordinator struct {
	Orchestrator *Orchestrator
	Callback     Callback
}

// NewTask returns a fresh task identifier: a timestamp for human eyes
// plus a short unique suffix.
func NewTask() string {
	return time.Now().Format("20060102_150405") + "_" + uuid.NewString()[:8]
}

// Run validates both timepoints, computes their content digests up
// front, executes the phases whose cache entries are absent concurrently
// (at most two workers) and loads the cache hits that were skipped.
// Both phases are always joined: one failing never cancels the other.
func (c *Coordinator) Run(ctx context.Context, task string, pre, post *conf.PhaseInput) (preOut, postOut PhaseOutcome, err error) {
	cb := c.Callback
	log := GetLogger()

	cb.printf("=== Starting Processing Task ===")
	cb.printf("Pre file: %s", pre.Image)
	cb.printf("Post file: %s", post.Image)

	// Configuration errors abort before any computation.
	if err := ValidateInput("pre", pre); err != nil {
		return preOut, postOut, err
	}
	if err := ValidateInput("post", post); err != nil {
		return preOut, postOut, err
	}
	cb.emit("pre_bone_path", pre.Bone)
	cb.emit("pre_bc_path", pre.Composition)
	cb.emit("post_bone_path", post.Bone)
	cb.emit("post_bc_path", post.Composition)

	cb.printf("Calculating file digests...")
	preDigest, err := cache.FileDigest(pre.Image)
	if err != nil {
		return preOut, postOut, err
	}
	postDigest, err := cache.FileDigest(post.Image)
	if err != nil {
		return preOut, postOut, err
	}
	cb.printf("Pre digest: %s", preDigest)
	cb.printf("Post digest: %s", postDigest)

	preOut = PhaseOutcome{Name: "pre", Digest: preDigest}
	postOut = PhaseOutcome{Name: "post", Digest: postDigest}

	store := c.Orchestrator.Store
	outcomes := []*PhaseOutcome{&preOut, &postOut}
	inputs := []*conf.PhaseInput{pre, post}

	var g errgroup.Group
	g.SetLimit(2)
	for i := range outcomes {
		out, in := outcomes[i], inputs[i]
		if store.Has(out.Digest) {
			continue // loaded after the join
		}
		g.Go(func() error {
			log.Info("scheduling phase worker", "task", task, "phase", out.Name)
			res, cached, err := c.Orchestrator.Run(ctx, task, out.Digest, in)
			if err != nil {
				out.Source = SourceFailed
				out.Err = err
				log.Error("phase failed", "task", task, "phase", out.Name, "error", err)
				return nil // never cancel the sibling phase
			}
			out.Result = res
			out.Source = SourceFresh
			if cached {
				out.Source = SourceCache
			}
			return nil
		})
	}
	_ = g.Wait()

	// Load the cache hits that were never scheduled.
	for _, out := range outcomes {
		if out.Source != "" {
			continue
		}
		data, ok, err := store.Get(out.Digest)
		if err != nil || !ok {
			out.Source = SourceFailed
			out.Err = errors.Newf("cache entry for %s phase disappeared", out.Name).
				Category(errors.CategoryCache).
				Build()
			continue
		}
		var res PhaseResult
		if err := json.Unmarshal(data, &res); err != nil {
			out.Source = SourceFailed
			out.Err = errors.New(err).Category(errors.CategoryCache).Build()
			continue
		}
		out.Result = &res
		out.Source = SourceCache
	}

	cb.emit("pre_results_path", store.EntryPath(preDigest))
	cb.emit("post_results_path", store.EntryPath(postDigest))
	return preOut, postOut, nil
}
