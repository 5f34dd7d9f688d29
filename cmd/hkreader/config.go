package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration. Every field is optional; the
// zero file is a working setup.
type Config struct {
	// Server is the default Hyperkitty server URL for commands that
	// take --server.
	Server string `yaml:"server,omitempty"`
	// Database is the sqlite path for the local archive cache.
	Database string `yaml:"database,omitempty"`
	// HTTPTimeout bounds each request to the archive server.
	HTTPTimeout time.Duration `yaml:"http_timeout,omitempty"`
	// PageCap bounds how many pages of one collection are followed.
	PageCap int `yaml:"page_cap,omitempty"`
}

// expandPath expands a leading ~ to the home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	return path, nil
}

// loadConfig reads the YAML config, filling defaults for anything
// unset. A missing file is not an error.
func loadConfig(path string) (Config, error) {
	path, err := expandPath(path)
	if err != nil {
		return Config{}, err
	}

	var conf Config
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return Config{}, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &conf); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if conf.Database == "" {
		conf.Database = "~/.local/share/hkreader/archive.db"
	}
	conf.Database, err = expandPath(conf.Database)
	if err != nil {
		return Config{}, err
	}
	if conf.HTTPTimeout == 0 {
		conf.HTTPTimeout = 30 * time.Second
	}
	if conf.PageCap == 0 {
		conf.PageCap = 50
	}
	return conf, nil
}

// ensureDatabaseDir creates the directory the sqlite file lives in.
func ensureDatabaseDir(dbPath string) error {
	return os.MkdirAll(filepath.Dir(dbPath), 0o755)
}
