// Package analyze implements the full two-timepoint run: both phases,
// the prediction model and the audit trail.
package analyze

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mvirta/bodycomp-go/internal/analysis"
	"github.com/mvirta/bodycomp-go/internal/conf"
	"github.com/mvirta/bodycomp-go/internal/errors"
	"github.com/mvirta/bodycomp-go/internal/predict"
)

// Command creates the analyze command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a pre/post scan pair and predict treatment response",
		Long: `Runs the vertebra localization and tissue volumetrics on both
timepoints, then combines them with the clinical covariates into a
response probability. Results per timepoint are cached by image content,
so reruns over unchanged scans skip straight to the prediction.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), settings)
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

func runAnalyze(ctx context.Context, settings *conf.Settings) error {
	cb := analysis.Callback(func(line string) { fmt.Println(line) })

	o, err := analysis.NewOrchestrator(settings, cb)
	if err != nil {
		return err
	}
	c := &analysis.Coordinator{Orchestrator: o, Callback: cb}

	task := analysis.NewTask()
	preOut, postOut, err := c.Run(ctx, task, &settings.Pre, &settings.Post)
	if err != nil {
		return err
	}
	if preOut.Err != nil || postOut.Err != nil {
		return errors.Join(preOut.Err, postOut.Err)
	}

	p, err := predict.Combine(&settings.Clinical, preOut.Result, postOut.Result)
	if err != nil {
		return err
	}
	auditPath, err := predict.WriteAudit(settings.Main.OutputDir, task, p)
	if err != nil {
		return err
	}

	cb(fmt.Sprintf("callback@prediction_path@%s", auditPath))
	cb(fmt.Sprintf("callback@y@%v", p.Y))
	cb("=== Task Finished ===")
	return nil
}

// setupFlags configures flags specific to the analyze command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().StringVar(&settings.Pre.Image, "pre-image", viper.GetString("pre.image"), "Pre-treatment image (.nii or .nii.gz)")
	cmd.Flags().StringVar(&settings.Pre.Bone, "pre-bone", viper.GetString("pre.bone"), "Pre-treatment spine segmentation")
	cmd.Flags().StringVar(&settings.Pre.Composition, "pre-composition", viper.GetString("pre.composition"), "Pre-treatment body composition segmentation")
	cmd.Flags().StringVar(&settings.Post.Image, "post-image", viper.GetString("post.image"), "Post-treatment image (.nii or .nii.gz)")
	cmd.Flags().StringVar(&settings.Post.Bone, "post-bone", viper.GetString("post.bone"), "Post-treatment spine segmentation")
	cmd.Flags().StringVar(&settings.Post.Composition, "post-composition", viper.GetString("post.composition"), "Post-treatment body composition segmentation")

	cmd.Flags().IntVar(&settings.Clinical.Sex, "sex", viper.GetInt("clinical.sex"), "Sex, 0 or 1")
	cmd.Flags().IntVar(&settings.Clinical.Smoking, "smoking", viper.GetInt("clinical.smoking"), "Smoking status, 0 never, 1 current, 2 former")
	cmd.Flags().IntVar(&settings.Clinical.Type, "type", viper.GetInt("clinical.type"), "Histology type, 1 to 3")
	cmd.Flags().IntVar(&settings.Clinical.TPS, "tps", viper.GetInt("clinical.tps"), "TPS expression group, 0 or 1")
	cmd.Flags().Float64Var(&settings.Clinical.Height, "height", viper.GetFloat64("clinical.height"), "Height in meters")
}
