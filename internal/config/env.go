package config

import (
	"os"

	"github.com/caarlos0/env/v11"
)

// environment carries the process-level settings the seeder honors.
type environment struct {
	BaseDirectory string `env:"CRAWL4_AI_BASE_DIRECTORY"`
}

// ResolveBaseDirectory returns the directory under which the seeder keeps
// its cache tree: CRAWL4_AI_BASE_DIRECTORY when set, the user's home
// directory otherwise.
func ResolveBaseDirectory() (string, error) {
	var e environment
	if err := env.Parse(&e); err != nil {
		return "", err
	}
	if e.BaseDirectory != "" {
		return e.BaseDirectory, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return home, nil
}
