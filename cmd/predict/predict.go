// Package predict implements the prediction-only command: combine two
// already cached phase results into a response probability.
package predict

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mvirta/bodycomp-go/internal/analysis"
	"github.com/mvirta/bodycomp-go/internal/cache"
	"github.com/mvirta/bodycomp-go/internal/conf"
	"github.com/mvirta/bodycomp-go/internal/errors"
	"github.com/mvirta/bodycomp-go/internal/predict"
)

// Command creates the predict command.
func Command(settings *conf.Settings) *cobra.Command {
	var preDigest, postDigest string

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict treatment response from two cached phase results",
		Long: `Loads the pre and post phase results by their image content digests
and evaluates the prediction model without touching the scans. Both
digests must already be present in the cache, for example from earlier
phase or analyze runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(settings, preDigest, postDigest)
		},
	}

	cmd.Flags().StringVar(&preDigest, "pre-digest", "", "Content digest of the pre-treatment image")
	cmd.Flags().StringVar(&postDigest, "post-digest", "", "Content digest of the post-treatment image")
	_ = cmd.MarkFlagRequired("pre-digest")
	_ = cmd.MarkFlagRequired("post-digest")

	setupFlags(cmd, settings)

	return cmd
}

func runPredict(settings *conf.Settings, preDigest, postDigest string) error {
	store, err := cache.New(settings.Cache.Dir, time.Duration(settings.Cache.MemoryTTLMinutes)*time.Minute)
	if err != nil {
		return err
	}

	pre, err := loadResult(store, "pre", preDigest)
	if err != nil {
		return err
	}
	post, err := loadResult(store, "post", postDigest)
	if err != nil {
		return err
	}

	p, err := predict.Combine(&settings.Clinical, pre, post)
	if err != nil {
		return err
	}
	auditPath, err := predict.WriteAudit(settings.Main.OutputDir, analysis.NewTask(), p)
	if err != nil {
		return err
	}

	fmt.Printf("callback@prediction_path@%s\n", auditPath)
	fmt.Printf("callback@y@%v\n", p.Y)
	return nil
}

func loadResult(store *cache.Store, name, digest string) (*analysis.PhaseResult, error) {
	data, ok, err := store.Get(digest)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Newf("no cached %s results for digest %s", name, digest).
			Category(errors.CategoryCache).
			Build()
	}
	var res analysis.PhaseResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.New(fmt.Errorf("unreadable %s cache entry: %w", name, err)).
			Category(errors.CategoryCache).
			Build()
	}
	return &res, nil
}

// setupFlags configures the clinical covariate flags.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().IntVar(&settings.Clinical.Sex, "sex", viper.GetInt("clinical.sex"), "Sex, 0 or 1")
	cmd.Flags().IntVar(&settings.Clinical.Smoking, "smoking", viper.GetInt("clinical.smoking"), "Smoking status, 0 never, 1 current, 2 former")
	cmd.Flags().IntVar(&settings.Clinical.Type, "type", viper.GetInt("clinical.type"), "Histology type, 1 to 3")
	cmd.Flags().IntVar(&settings.Clinical.TPS, "tps", viper.GetInt("clinical.tps"), "TPS expression group, 0 or 1")
	cmd.Flags().Float64Var(&settings.Clinical.Height, "height", viper.GetFloat64("clinical.height"), "Height in meters")
}
