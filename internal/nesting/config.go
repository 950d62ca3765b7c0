package nesting

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/nestforge/internal/model"
)

// DefaultConfigDir returns the directory nesting config is read from and
// written to by default: a dotfile directory under the user's home,
// matching the convention of similar CLI tools.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".nestforge")
}

// DefaultConfigPath returns the default path for the nesting config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// SaveConfig persists cfg to path as indented JSON, creating any missing
// parent directories.
func SaveConfig(path string, cfg model.Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadConfig reads a nesting config from path. If the file does not exist,
// it returns model.DefaultConfig with no error, so a fresh install runs
// with sensible defaults instead of failing.
func LoadConfig(path string) (model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultConfig(), nil
		}
		return model.Config{}, err
	}
	var cfg model.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return model.Config{}, err
	}
	if cfg.GA.RotationAngles == nil {
		cfg.GA.RotationAngles = model.DefaultGAConfig().RotationAngles
	}
	return cfg, nil
}
