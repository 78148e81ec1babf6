package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mvirta/bodycomp-go/cmd/analyze"
	"github.com/mvirta/bodycomp-go/cmd/phase"
	"github.com/mvirta/bodycomp-go/cmd/predict"
	"github.com/mvirta/bodycomp-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bodycomp",
		Short: "Body composition change analysis CLI",
		Long: `Localizes vertebrae on a spine segmentation, extracts the thoracic
range from two timepoints of the same subject and predicts treatment
response from the body composition change between them.`,
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		analyze.Command(settings),
		phase.Command(settings),
		predict.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Main.Debug, "debug", "d", viper.GetBool("main.debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.Main.OutputDir, "output", "o", viper.GetString("main.outputdir"), "Path to the output directory")
	rootCmd.PersistentFlags().StringVar(&settings.Cache.Dir, "cache", viper.GetString("cache.dir"), "Path to the results cache directory")
	rootCmd.PersistentFlags().StringVar(&settings.Spine.StartLevel, "start-level", viper.GetString("spine.startlevel"), "Superior vertebral boundary of the analysis range")
	rootCmd.PersistentFlags().StringVar(&settings.Spine.EndLevel, "end-level", viper.GetString("spine.endlevel"), "Inferior vertebral boundary of the analysis range")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
