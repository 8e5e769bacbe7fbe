package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"tubesnap/pkg/models"
)

var (
	ErrInvalidPort     = errors.New("invalid port: must be between 1 and 65535")
	ErrInvalidRate     = errors.New("invalid rate limit: must be positive")
	ErrInvalidFileSize = errors.New("invalid max file size: must be positive")
)

// Manager handles configuration loading, saving, and updates
type Manager struct {
	mu         sync.RWMutex
	config     *models.Config
	configPath string
}

// NewManager creates a new configuration manager.
// If the config file doesn't exist, it creates one with default values.
// Environment overrides are applied after loading.
func NewManager(configPath string) (*Manager, error) {
	manager := &Manager{
		configPath: configPath,
		config:     models.DefaultConfig(),
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := manager.load(); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		configDir := filepath.Dir(configPath)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		if err := manager.Save(); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	}

	applyEnv(manager.config)

	if err := Validate(manager.config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return manager, nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *models.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modifications
	cfg := *m.config
	return &cfg
}

// Update applies a function to the configuration and saves it
func (m *Manager) Update(fn func(*models.Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(m.config)

	if err := Validate(m.config); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return m.save()
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.save()
}

// load reads configuration from disk
func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg models.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config JSON: %w", err)
	}

	m.config = mergeWithDefaults(&cfg)

	return nil
}

// save writes configuration to disk (must be called with lock held)
func (m *Manager) save() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// mergeWithDefaults fills in default values for missing fields
func mergeWithDefaults(cfg *models.Config) *models.Config {
	defaults := models.DefaultConfig()

	if cfg.WebServerHost == "" {
		cfg.WebServerHost = defaults.WebServerHost
	}
	if cfg.WebServerPort == 0 {
		cfg.WebServerPort = defaults.WebServerPort
	}
	if cfg.MetadataRatePerMin == 0 {
		cfg.MetadataRatePerMin = defaults.MetadataRatePerMin
	}
	if cfg.DownloadRatePerMin == 0 {
		cfg.DownloadRatePerMin = defaults.DownloadRatePerMin
	}
	if cfg.MaxFileSizeBytes == 0 {
		cfg.MaxFileSizeBytes = defaults.MaxFileSizeBytes
	}

	return cfg
}

// applyEnv overrides configuration from the environment.
// TUBESNAP_CONSTRAINED marks a constrained hosting environment: the temp
// root moves to /tmp and the file-fetch timeout shortens.
func applyEnv(cfg *models.Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.WebServerPort = p
		}
	}
	if os.Getenv("TUBESNAP_CONSTRAINED") != "" {
		cfg.Constrained = true
	}
	if cfg.TempDir == "" {
		if cfg.Constrained {
			cfg.TempDir = "/tmp"
		} else {
			cfg.TempDir = os.TempDir()
		}
	}
}

// Validate checks if the configuration is valid
func Validate(cfg *models.Config) error {
	if cfg.WebServerPort < 1 || cfg.WebServerPort > 65535 {
		return ErrInvalidPort
	}

	if cfg.MetadataRatePerMin < 1 || cfg.DownloadRatePerMin < 1 {
		return ErrInvalidRate
	}

	if cfg.MaxFileSizeBytes < 1 {
		return ErrInvalidFileSize
	}

	return nil
}

// GetDataDir returns the application data directory
func GetDataDir() string {
	if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
		dataDir := filepath.Join(appData, "Tubesnap")
		os.MkdirAll(dataDir, 0755)
		return dataDir
	}

	if home, err := os.UserHomeDir(); err == nil {
		dataDir := filepath.Join(home, ".tubesnap")
		os.MkdirAll(dataDir, 0755)
		return dataDir
	}

	// Last resort: current directory
	return "."
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return filepath.Join(GetDataDir(), "config.json")
}
