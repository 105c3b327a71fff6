// Package conf handles loading, saving and validating the holterscan
// configuration. Settings are read with viper from an on-disk YAML file,
// falling back to documented defaults for a 400 Hz recording pipeline.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/holterscan/holterscan/internal/errors"
)

//go:embed config.yaml
var configFiles embed.FS

// LogConfig defines the file logging configuration.
type LogConfig struct {
	Enabled    bool   // true to enable file logging
	Path       string // path to log file
	MaxSize    int    // maximum size in megabytes before rotation
	MaxBackups int    // maximum number of rotated files to keep
	MaxAge     int    // maximum age in days of a rotated file
}

// MetricsSettings configures the Prometheus metrics endpoint.
type MetricsSettings struct {
	Enabled bool   // true to serve /metrics while an analysis runs
	Addr    string // listen address, e.g. "localhost:8090"
}

// MainSettings contains general application settings.
type MainSettings struct {
	Name    string          // name of this node, used in log entries
	Log     LogConfig       // application log settings
	Metrics MetricsSettings // metrics endpoint settings
}

// InputSettings holds the analysis target set from the command line.
type InputSettings struct {
	Path      string `yaml:"-"` // path to record or dataset directory, runtime value
	Recursive bool   `yaml:"-"` // true for directory analysis
	Force     bool   `yaml:"-"` // true to recompute even when a cached run exists
}

// DatasetSettings describes the on-disk layout of a recording dataset.
type DatasetSettings struct {
	Dir          string // dataset root directory
	SignalDir    string // subdirectory holding raw signal files
	ReferenceDir string // subdirectory holding reference annotation files
}

// BaselineSettings configures the cascaded median filter baseline remover.
type BaselineSettings struct {
	Enabled bool    // true to remove baseline wander
	Window1 float64 // short-term baseline window in seconds
	Window2 float64 // long-term baseline window in seconds
}

// BandpassSettings configures the FIR bandpass filter.
type BandpassSettings struct {
	Enabled     bool    // true to bandpass filter the signal
	Low         float64 // lower cutoff frequency in Hz
	High        float64 // upper cutoff frequency in Hz
	OrderFactor float64 // filter order as a fraction of the sampling rate
}

// EpochSettings configures chunking for parallel preprocessing.
type EpochSettings struct {
	Length  float64 // epoch length in seconds
	Overlap float64 // overlap between adjacent epochs in seconds
	MinTail float64 // tails shorter than this are merged into the last epoch, seconds
}

// ECGSettings contains settings for the signal preprocessing pipeline.
type ECGSettings struct {
	SampleRate int    // target sampling rate in Hz, input is resampled to this
	Threads    int    // worker count for parallel preprocessing, 0 to autodetect
	Detector   string // QRS detector name, empty string disables detection
	Baseline   BaselineSettings
	Bandpass   BandpassSettings
	Epoch      EpochSettings
}

// MatchingSettings contains settings for beat-annotation matching.
type MatchingSettings struct {
	Tolerance   float64 // tolerance radius in seconds for matching a beat to an annotation
	LeftMargin  int     // beats closer than this to the signal start are dropped, samples
	RightMargin int     // beats closer than this to the signal end are dropped, samples
	EpochLength float64 // matching epoch length in seconds
}

// SQLiteSettings contains settings for the artifact cache database.
type SQLiteSettings struct {
	Enabled bool   // true to cache analysis runs in SQLite
	Path    string // path to the SQLite database
}

// OutputSettings contains settings for analysis output.
type OutputSettings struct {
	Dir    string // directory for filtered-signal artifacts
	SQLite SQLiteSettings
}

// Settings is the root configuration object. It is constructed once per
// process by Load and passed down the call chain; nothing mutates it
// after validation.
type Settings struct {
	Debug bool // true to enable debug logging

	Main     MainSettings
	Input    InputSettings
	Dataset  DatasetSettings
	ECG      ECGSettings
	Matching MatchingSettings
	Output   OutputSettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into a new Settings instance.
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

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with config paths and default values.
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

	// Set default values for each configuration parameter,
	// function defined in defaults.go
	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config file to the
// first default config path and reads it back in.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading embedded config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveSettings saves the current settings to the configuration file.
func SaveSettings() error {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()

	settingsCopy := *settingsInstance

	configPath, err := FindConfigFile()
	if err != nil {
		return fmt.Errorf("error finding config file: %w", err)
	}

	if err := SaveYAMLConfig(configPath, &settingsCopy); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	log.Printf("Settings saved successfully to %s", configPath)
	return nil
}

// SaveYAMLConfig writes settings to the YAML configuration file through a
// temporary file so the write is atomic. Comments in the existing file
// are not preserved.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("operation", "create-temp-config").
			Build()
	}
	tempName := tempFile.Name()
	defer os.Remove(tempName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing temporary config file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary config file: %w", err)
	}

	if err := os.Rename(tempName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}
