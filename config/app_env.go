package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/akeren/waitlist-intake/internal/log"
	"github.com/akeren/waitlist-intake/pkg/utils"
	"github.com/joho/godotenv"
)

const (
	AppEnvKey = "APP_ENV"
	// EnvFilesKey is a comma separated list of dotenv files, loaded in order.
	EnvFilesKey = "ENV_FILES"
)

func envFiles() []string {
	raw := utils.GetEnvTrimmed(EnvFilesKey)
	if raw == "" {
		return []string{".env"}
	}

	var files []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	return files
}

// InitializeEnvFile loads dotenv files without overriding variables that are
// already set. Missing files are skipped.
func InitializeEnvFile(logger *log.Logger) {
	if utils.GetEnvBool("SKIP_DOTENV", false) {
		logger.Info("Skipping .env file load (SKIP_DOTENV=true)")
		return
	}

	loaded := 0
	for _, file := range envFiles() {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debug("Env file not found", "file", file)
				continue
			}
			logger.Warn("Failed to load env file", "file", file, "error", err.Error())
			continue
		}
		loaded++
		logger.Info("Environment variables loaded", "file", file)
	}

	if loaded == 0 {
		logger.Info("No env file loaded; using process environment only")
	}
}

func GetAppEnv() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(AppEnvKey)))
}

func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))

	switch env {
	case "", "dev", "development", "local", "test", "testing":
		return nil
	default:
		return fmt.Errorf("--auto-migrate is not allowed when %s=%q (allowed: \"\", dev, development, local, test, testing)", AppEnvKey, env)
	}
}
