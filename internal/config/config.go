// Package config loads casedash settings from the environment, optionally
// seeded by a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by all subcommands. Flags override these
// values per command.
type Config struct {
	DataDir  string
	BaseURL  string
	Port     string
	MinYear  int
	ThisYear int
	LogLevel string
}

const (
	defaultDataDir = "./data"
	defaultPort    = "8080"
	defaultMinYear = 2015
)

// Load reads envFile if it exists and then the CASEDASH_* variables. A
// missing .env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	minYear, err := envInt("CASEDASH_MIN_YEAR", defaultMinYear)
	if err != nil {
		return nil, err
	}
	thisYear, err := envInt("CASEDASH_THIS_YEAR", time.Now().Year())
	if err != nil {
		return nil, err
	}
	if minYear > thisYear {
		return nil, fmt.Errorf("CASEDASH_MIN_YEAR %d is after CASEDASH_THIS_YEAR %d", minYear, thisYear)
	}

	return &Config{
		DataDir:  envOr("CASEDASH_DATA_DIR", defaultDataDir),
		BaseURL:  os.Getenv("CASEDASH_BASE_URL"),
		Port:     envOr("CASEDASH_PORT", defaultPort),
		MinYear:  minYear,
		ThisYear: thisYear,
		LogLevel: envOr("LOG_LEVEL", "INFO"),
	}, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
