package bootstrap

import (
	"log/slog"
	"os"

	"marketplace-checkout/internal/pkg/config"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		LoadConfig,
	),
)

// LoadConfig reads ENV_FILE (default .env) into the environment before
// processing it. A missing file is normal outside local development.
func LoadConfig() (config.Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read env file", "file", envFile, "error", err.Error())
	}
	return config.LoadConfig()
}
