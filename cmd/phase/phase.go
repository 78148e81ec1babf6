// Package phase implements the single-timepoint command: compute the
// tissue volumes for one scan and leave them in the cache.
package phase

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mvirta/bodycomp-go/internal/analysis"
	"github.com/mvirta/bodycomp-go/internal/cache"
	"github.com/mvirta/bodycomp-go/internal/conf"
)

// Command creates the phase command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Compute tissue volumes for a single timepoint",
		Long: `Runs vertebra localization and tissue volumetrics on one scan and
stores the result in the content-addressed cache. Useful for warming the
cache ahead of an analyze run, or for inspecting one timepoint alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPhase(cmd.Context(), settings)
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

func runPhase(ctx context.Context, settings *conf.Settings) error {
	cb := analysis.Callback(func(line string) { fmt.Println(line) })

	o, err := analysis.NewOrchestrator(settings, cb)
	if err != nil {
		return err
	}

	in := &settings.Pre
	if err := analysis.ValidateInput("phase", in); err != nil {
		return err
	}

	digest, err := cache.FileDigest(in.Image)
	if err != nil {
		return err
	}
	cb(fmt.Sprintf("callback@digest@%s", digest))

	task := analysis.NewTask()
	res, cached, err := o.Run(ctx, task, digest, in)
	if err != nil {
		return err
	}

	cb(fmt.Sprintf("callback@cached@%t", cached))
	cb(fmt.Sprintf("callback@results_path@%s", o.Store.EntryPath(digest)))
	cb(fmt.Sprintf("callback@sm@%v", res.SM))
	cb(fmt.Sprintf("callback@sa@%v", res.SA))
	return nil
}

// setupFlags configures flags specific to the phase command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().StringVar(&settings.Pre.Image, "image", viper.GetString("pre.image"), "Image to analyze (.nii or .nii.gz)")
	cmd.Flags().StringVar(&settings.Pre.Bone, "bone", viper.GetString("pre.bone"), "Spine segmentation")
	cmd.Flags().StringVar(&settings.Pre.Composition, "composition", viper.GetString("pre.composition"), "Body composition segmentation")
}
