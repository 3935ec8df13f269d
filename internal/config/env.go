package config

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// Environment variable names spec.md §6 reserves for LM credentials.
const (
	EnvLMAPIKey  = "SUBSTRATE_LM_API_KEY"
	EnvLMBaseURL = "SUBSTRATE_LM_BASE_URL"
)

// Env is the pair of environment values §6 names.
type Env struct {
	APIKey  string
	BaseURL string
}

// LoadEnv loads dotenvPath (if present; a missing .env file is not an
// error — godotenv.Load errors on absence, which hector's composition root
// treats as optional) and returns the two LM environment variables.
func LoadEnv(dotenvPath string) (Env, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !os.IsNotExist(err) {
			return Env{}, valueobjects.Wrap(valueobjects.ErrInvalidRequest, err)
		}
	}
	key := os.Getenv(EnvLMAPIKey)
	if key == "" {
		return Env{}, valueobjects.Newf(valueobjects.ErrValidation, "%s is required", EnvLMAPIKey)
	}
	return Env{APIKey: key, BaseURL: os.Getenv(EnvLMBaseURL)}, nil
}
