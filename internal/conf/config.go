// Package conf handles the application configuration: viper-backed
// settings with defaults, a YAML config file, and command line overrides.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// PhaseInput holds the three volumes describing one timepoint.
type PhaseInput struct {
	Image       string `yaml:"image"`       // base CT/MR image
	Bone        string `yaml:"bone"`        // spine segmentation, labels 1-25
	Composition string `yaml:"composition"` // tissue segmentation, labels 1-5
}

// ClinicalSettings holds the covariates consumed by the prediction model.
type ClinicalSettings struct {
	Sex     int     `yaml:"sex"`     // 0 or 1
	Smoking int     `yaml:"smoking"` // 0 never, 1 current, 2 former
	Type    int     `yaml:"type"`    // histology type 1, 2 or 3
	TPS     int     `yaml:"tps"`     // 0 or 1
	Height  float64 `yaml:"height"`  // meters
}

// SpineSettings holds the vertebra localization parameters.
type SpineSettings struct {
	Connectivity     int     `yaml:"connectivity"`     // 4 or 8
	MinMaskPixels    int     `yaml:"minmaskpixels"`    // do not raise casually, thick-slice data breaks
	ROIRadiusMM      float64 `yaml:"roiradiusmm"`      // physical ROI radius
	StartLevel       string  `yaml:"startlevel"`       // superior range boundary
	EndLevel         string  `yaml:"endlevel"`         // inferior range boundary
	DropLoneTrailing bool    `yaml:"droplonetrailing"` // drop last level when it has a single component
}

// CacheSettings holds the content-addressed cache parameters.
type CacheSettings struct {
	Dir              string `yaml:"dir"`
	MemoryTTLMinutes int    `yaml:"memoryttlminutes"`
}

// MainSettings holds general application settings.
type MainSettings struct {
	Debug     bool   `yaml:"debug"`
	LogLevel  string `yaml:"loglevel"`
	OutputDir string `yaml:"outputdir"`
}

// Settings is the root configuration structure.
type Settings struct {
	Main     MainSettings     `yaml:"main"`
	Cache    CacheSettings    `yaml:"cache"`
	Spine    SpineSettings    `yaml:"spine"`
	Clinical ClinicalSettings `yaml:"clinical"`

	Pre  PhaseInput `yaml:"pre"`
	Post PhaseInput `yaml:"post"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file (creating one with defaults when
// absent) and unmarshals it into a Settings struct.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// run on defaults, no config file is required
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

// GetDefaultConfigPaths returns the config file search paths: the working
// directory first, then the user config directory.
func GetDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "bodycomp-go"))
	}
	return paths, nil
}

// Setting returns the loaded settings, loading them on first use.
func Setting() *Settings {
	settingsMutex.RLock()
	if settingsInstance != nil {
		defer settingsMutex.RUnlock()
		return settingsInstance
	}
	settingsMutex.RUnlock()

	if _, err := Load(); err != nil {
		return nil
	}
	return settingsInstance
}

// SaveYAMLConfig writes the settings to configPath atomically.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}

// ValidateClinical checks the covariate ranges before any computation runs.
func ValidateClinical(c *ClinicalSettings) error {
	if c.Sex != 0 && c.Sex != 1 {
		return fmt.Errorf("sex must be 0 or 1, got %d", c.Sex)
	}
	if c.Smoking < 0 || c.Smoking > 2 {
		return fmt.Errorf("smoking status must be 0, 1 or 2, got %d", c.Smoking)
	}
	if c.Type < 1 || c.Type > 3 {
		return fmt.Errorf("histology type must be 1, 2 or 3, got %d", c.Type)
	}
	if c.TPS != 0 && c.TPS != 1 {
		return fmt.Errorf("tps must be 0 or 1, got %d", c.TPS)
	}
	if c.Height <= 0 {
		return fmt.Errorf("height must be positive meters, got %g", c.Height)
	}
	return nil
}

// ValidateSpine checks the vertebra localization parameters.
func ValidateSpine(s *SpineSettings) error {
	if s.Connectivity != 4 && s.Connectivity != 8 {
		return fmt.Errorf("connectivity must be 4 or 8, got %d", s.Connectivity)
	}
	if s.ROIRadiusMM <= 0 {
		return fmt.Errorf("roi radius must be positive, got %g", s.ROIRadiusMM)
	}
	return nil
}
