package conf

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/holterscan/holterscan/internal/errors"
)

const osWindows = "windows"

// GetDefaultConfigPaths returns the default configuration paths for the
// current operating system. The first path is used when a new config
// file has to be created.
func GetDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	exePath, err := os.Executable()
	if err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("operation", "get-executable-path").
			Build()
	}
	exeDir := filepath.Dir(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("operation", "get-home-directory").
			Build()
	}

	switch runtime.GOOS {
	case osWindows:
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Roaming", "holterscan"),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "holterscan"),
			"/etc/holterscan",
		}
	}

	// The working directory is always an accepted location.
	configPaths = append(configPaths, ".")

	return configPaths, nil
}

// FindConfigFile locates the active config.yaml among the default paths.
func FindConfigFile() (string, error) {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range configPaths {
		configFile := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFile); err == nil {
			return configFile, nil
		}
	}

	return "", errors.Newf("config.yaml not found in default paths").
		Component("conf").
		Category(errors.CategoryFileIO).
		Build()
}
