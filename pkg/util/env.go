package util

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnvToken ensures the named environment variable is present and returns it.
//
// It first loads a .env file from the working directory, then a fallback file at
// $HOME/.local/bin/.env, both with non-overwriting semantics (already-set
// variables win). Returns a descriptive error if the variable is still unset.
func LoadEnvToken(name string) (string, error) {
	// godotenv.Load does not override variables that are already set.
	_ = godotenv.Load()

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		fallback := filepath.Join(home, ".local", "bin", ".env")
		if info, err := os.Stat(fallback); err == nil && !info.IsDir() {
			_ = godotenv.Load(fallback)
		}
	}

	if v := os.Getenv(name); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("environment variable %q not set", name)
}
