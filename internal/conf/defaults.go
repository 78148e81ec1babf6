// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("main.debug", false)
	viper.SetDefault("main.loglevel", "info")
	viper.SetDefault("main.outputdir", "results")

	viper.SetDefault("cache.dir", "cache")
	viper.SetDefault("cache.memoryttlminutes", 60)

	viper.SetDefault("spine.connectivity", 4)
	viper.SetDefault("spine.minmaskpixels", 50)
	viper.SetDefault("spine.roiradiusmm", 3.0)
	viper.SetDefault("spine.startlevel", "T1")
	viper.SetDefault("spine.endlevel", "T12")
	viper.SetDefault("spine.droplonetrailing", true)

	viper.SetDefault("clinical.sex", 0)
	viper.SetDefault("clinical.smoking", 0)
	viper.SetDefault("clinical.type", 1)
	viper.SetDefault("clinical.tps", 0)
	viper.SetDefault("clinical.height", 0.0)
}
