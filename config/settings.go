package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// LoadFileConfig reads the config file, creating it with the default
// template on first run.
func LoadFileConfig() (*FileConfig, error) {
	cfg := DefaultFileConfig()
	configPath := GetConfigFilePath()

	if !FileExists(configPath) {
		if err := CreateDefaultConfig(); err != nil {
			return nil, fmt.Errorf("failed to create config: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// SaveFileConfig writes the config back to disk.
func SaveFileConfig(cfg *FileConfig) error {
	configDir := GetConfigDir()
	if err := EnsureDir(configDir); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(GetConfigFilePath(), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// CreateDefaultConfig writes the commented default template if no config
// file exists yet.
func CreateDefaultConfig() error {
	configDir := GetConfigDir()
	if err := EnsureDir(configDir); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := GetConfigFilePath()
	if FileExists(configPath) {
		return nil
	}

	if err := os.WriteFile(configPath, []byte(GenerateConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
