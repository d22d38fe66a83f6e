package env

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Host      string        `env:"PICOREDIS_HOST,default=127.0.0.1"`
	Port      int           `env:"PICOREDIS_PORT,default=6379"`
	Timeout   time.Duration `env:"PICOREDIS_TIMEOUT,default=3s"`
	Password  string        `env:"PICOREDIS_PASSWORD"`
	LogLevel  string        `env:"PICOREDIS_LOG_LEVEL,default=info"`
	DebugHTTP bool          `env:"PICOREDIS_DEBUG_HTTP"`
}

// LoadConfig reads the process environment, after loading .env.local if
// there is one.
func LoadConfig(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading .env.local: %w", err)
		}
	}

	return LoadConfigWith(ctx, envconfig.OsLookuper())
}

func LoadConfigWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	config := Config{}

	if err := envconfig.ProcessWith(ctx, &config, lookuper); err != nil {
		return nil, err
	}

	if config.Timeout <= 0 {
		return nil, fmt.Errorf("PICOREDIS_TIMEOUT must be positive, got %s", config.Timeout)
	}

	return &config, nil
}
