package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

const appDirName = "aichat"

// Config holds the user's persistent preferences: the last active provider,
// the last-chosen model per provider, the history directory and the context
// window size.
type Config struct {
	Provider     string            `json:"provider,omitempty" validate:"omitempty,lowercase"`
	Models       map[string]string `json:"models,omitempty" validate:"omitempty,dive,keys,lowercase,endkeys,required"`
	HistoryDir   string            `json:"history_dir,omitempty"`
	ContextLimit int               `json:"context_limit,omitempty" validate:"omitempty,min=1,max=1000"`
}

// Manager handles loading and saving the configuration.
type Manager struct {
	configDir string
	validate  *validator.Validate
}

// NewManager creates a manager rooted in the user's config directory.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}
	return NewManagerAt(filepath.Join(configDir, appDirName)), nil
}

// NewManagerAt creates a manager rooted in dir.
func NewManagerAt(dir string) *Manager {
	return &Manager{
		configDir: dir,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Dir returns the application's config directory.
func (m *Manager) Dir() string { return m.configDir }

// GetConfigPath returns the absolute path to the config.json file.
func (m *Manager) GetConfigPath() string {
	return filepath.Join(m.configDir, "config.json")
}

// DefaultHistoryDir is used when the config does not name one.
func (m *Manager) DefaultHistoryDir() string {
	return filepath.Join(m.configDir, "history")
}

// DefaultLogPath is where the application log goes unless overridden.
func (m *Manager) DefaultLogPath() string {
	return filepath.Join(m.configDir, "aichat.log")
}

// Load reads the configuration from disk.
// If the file does not exist, it returns an empty Config and no error.
func (m *Manager) Load() (*Config, error) {
	path := m.GetConfigPath()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config json: %w", err)
	}
	if err := m.validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to disk with restricted permissions (0600).
func (m *Manager) Save(cfg *Config) error {
	if err := m.validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.GetConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists checks if the configuration file has been created.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.GetConfigPath())
	return !os.IsNotExist(err)
}
