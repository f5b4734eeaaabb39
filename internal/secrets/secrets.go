// Package secrets resolves credentials the way the rest of the stack
// does in production: a Docker secret file first, then an environment
// variable, with an optional .env bootstrap for local development.
package secrets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/contactkeval/optionprob/internal/domain"
	"github.com/contactkeval/optionprob/internal/logger"
)

const dockerSecretsDir = "/run/secrets"

// LoadDotenv loads a .env file from the working directory if present.
// A missing file is not an error — most production deployments have
// no .env and rely on the environment directly.
func LoadDotenv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Debugf("no .env file loaded: %v", err)
	}
}

// ReadDockerSecret reads a secret from /run/secrets/<name>, trimmed.
// An empty file counts as missing.
func ReadDockerSecret(name string) string {
	path := filepath.Join(dockerSecretsDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// LoadRequired loads a secret from Docker secrets or the environment.
// It returns a *domain.ConfigurationError if the secret is missing.
func LoadRequired(name, errMessage string) (string, error) {
	value := ReadDockerSecret(name)
	if value == "" {
		value = os.Getenv(name)
	}
	if value == "" {
		if errMessage == "" {
			errMessage = name + " secret is required"
		}
		return "", domain.NewConfigurationError(errMessage)
	}
	return value, nil
}

// LoadOptional loads a secret from Docker secrets or the environment,
// returning "" if neither source has it.
func LoadOptional(name string) string {
	value := ReadDockerSecret(name)
	if value == "" {
		value = os.Getenv(name)
	}
	return value
}
