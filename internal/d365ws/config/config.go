package config

import (
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/example/d365-switch-workspace/internal/d365ws/storage"
)

const configFileName = ".d365ws.yaml"

// Config holds user-configurable defaults for the tool. Everything has
// a working zero-ish default so the file is optional.
type Config struct {
	// VSVersion selects the Visual Studio settings file to edit
	// ("2015", "2017" or "2019").
	VSVersion string `yaml:"vsVersion"`
	// PackageStoreDir overrides the drive scan for the vendor
	// package store.
	PackageStoreDir string `yaml:"packageStoreDir"`
	// Webroot overrides the deployment root normally read from the
	// developer config.
	Webroot string `yaml:"webroot"`
	// StopCommand is the argv run to stop the platform environment
	// before package directories change.
	StopCommand []string `yaml:"stopCommand"`
	// MetadataCommand is the argv run to query the currently active
	// metadata directory. When empty the web config itself is read.
	MetadataCommand []string `yaml:"metadataCommand"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		VSVersion: "2017",
	}
}

// Path returns the config file location under the given home directory.
func Path(homeDir string) string {
	return filepath.Join(homeDir, configFileName)
}

// Load reads configuration from the file at path. A missing or
// unparsable file yields the defaults.
func Load(st *storage.Storage, path string) Config {
	cfg := Default()

	data, err := st.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default()
	}

	if cfg.VSVersion == "" {
		cfg.VSVersion = Default().VSVersion
	}
	return cfg
}
