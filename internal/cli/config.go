// Package cli holds the plumbing shared by the license command line tools:
// environment configuration, logging, secret resolution and output.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is loaded when neither -env nor LICENSEX_ENV_FILE is set.
const DefaultEnvFile = ".env"

// Config is the environment side of the CLI configuration. Flags override it.
type Config struct {
	Secret       string `env:"LICENSEX_SECRET"`
	SecretSource string `env:"LICENSEX_SECRET_SOURCE"`
	Format       string `env:"LICENSEX_FORMAT" envDefault:"observed"`
	LogLevel     string `env:"LICENSEX_LOG_LEVEL" envDefault:"info"`
	Token        string `env:"LICENSEX_TOKEN"`
}

// EnvFilePath picks the .env file to load: the flag value, then
// LICENSEX_ENV_FILE, then DefaultEnvFile.
func EnvFilePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv("LICENSEX_ENV_FILE"); path != "" {
		return path
	}
	return DefaultEnvFile
}

// LoadEnvFile loads variables from path without overriding ones already set
// in the process environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadConfig parses Config from environ, or from the process environment
// when environ is nil.
func LoadConfig(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// FirstNonEmpty returns the first value that is not empty, so that a flag
// wins over the environment and the environment over a built-in default.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
