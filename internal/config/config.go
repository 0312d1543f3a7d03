package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds the client-side settings for talking to the import service.
type Config struct {
	Schema     int    `json:"schema"`
	ServiceURL string `json:"service_url"`
	APIToken   string `json:"api_token,omitempty"`
	ProjectID  int    `json:"project_id,omitempty"`
	RunLogPath string `json:"run_log_path,omitempty"`
}

const CurrentConfigSchema = 1

func DefaultConfig() *Config {
	return &Config{
		Schema:     CurrentConfigSchema,
		ServiceURL: "http://localhost:8000",
		RunLogPath: defaultRunLogPath(),
	}
}

// Load reads the config from the explicit path, then the XDG location,
// falling back to defaults when no file exists.
func Load(configPath string) (*Config, error) {
	for _, path := range getConfigPaths(configPath) {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		var cfg Config
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}

		cfg.applyDefaults()
		return &cfg, nil
	}

	return DefaultConfig(), nil
}

// Save writes the config to the XDG location.
func (c *Config) Save() error {
	path := getConfigPaths("")[0]
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func getConfigPaths(explicit string) []string {
	var paths []string
	if explicit != "" {
		paths = append(paths, explicit)
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, _ := os.UserHomeDir()
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "sheetmap", "config.json"))

	return paths
}

func (c *Config) applyDefaults() {
	if c.ServiceURL == "" {
		c.ServiceURL = "http://localhost:8000"
	}
	if c.RunLogPath == "" {
		c.RunLogPath = defaultRunLogPath()
	}
}

func defaultRunLogPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "sheetmap", "runs.db")
}
