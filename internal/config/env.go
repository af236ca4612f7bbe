package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
	"git.home.luguber.info/inful/pomosite/internal/logfields"
)

// envFiles are loaded in order. godotenv never overrides a variable that is already
// set, so .env.local wins over .env and the process environment wins over both.
var envFiles = []string{".env.local", ".env"}

func loadEnvFiles(dir string) error {
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "failed to load environment file").
				Fatal().
				UserAction().
				WithContext("path", path).
				Build()
		}
		slog.Debug("Loaded environment variables", logfields.Path(path))
	}
	return nil
}
