package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Secrets are connection strings kept out of the YAML config
type Secrets struct {
	DatabaseURL string `validate:"required"`

	// RedisURL is optional; without it commits are serialized in-process only
	RedisURL string `validate:"omitempty,url"`
}

// LoadSecrets reads DATABASE_URL and REDIS_URL from the environment after loading ".env.<env>"
// (or ".env" when env is empty) if that file exists. Variables already set in the environment win.
func LoadSecrets(env string) (*Secrets, error) {
	dotEnvPath := ".env"
	if env != "" {
		dotEnvPath = ".env." + env
	}

	if err := godotenv.Load(dotEnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", dotEnvPath, err)
	}

	secrets := &Secrets{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
	}

	if err := validate.Struct(secrets); err != nil {
		return nil, fmt.Errorf("secrets validation failed: %w", err)
	}

	return secrets, nil
}
