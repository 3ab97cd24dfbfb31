package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

const (
	ProviderDir   = "dir"
	ProviderHTTP  = "http"
	ProviderS3    = "s3"
	ProviderMinio = "minio"

	CompressionNone = ""
	CompressionZstd = "zstd"
)

type AppConfig struct {
	Env                Environment
	LogLevel           string
	ServerPort         string
	HttpTimeoutSeconds int
}

// DatasetConfig locates the static word2vec, hint and secret word files.
// Location is a directory for the dir provider and a base URL for http;
// the object storage providers use Bucket and Prefix.
type DatasetConfig struct {
	Provider    string
	Location    string
	Bucket      string
	Prefix      string
	Region      string
	Endpoint    string
	AccessKey   string
	SecretKey   string
	UseSSL      bool
	Compression string
	TempDir     string
}

type GameConfig struct {
	MaxSessions int
}

type Config struct {
	App     AppConfig
	Dataset DatasetConfig
	Game    GameConfig
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := parseEnvironment(getEnv("APP_ENV", "development"))

	return &Config{
		App: AppConfig{
			Env:                env,
			LogLevel:           getLogLevel(env),
			ServerPort:         getEnv("APP_SERVER_PORT", "8080"),
			HttpTimeoutSeconds: getEnvInt("APP_HTTP_TIMEOUT_SECONDS", 30),
		},
		Dataset: DatasetConfig{
			Provider:    strings.ToLower(getEnv("DATASET_PROVIDER", ProviderDir)),
			Location:    getEnv("DATASET_LOCATION", "data"),
			Bucket:      getEnv("DATASET_BUCKET", ""),
			Prefix:      getEnv("DATASET_PREFIX", ""),
			Region:      getEnv("DATASET_REGION", "us-east-1"),
			Endpoint:    getEnv("DATASET_ENDPOINT", ""),
			AccessKey:   getEnv("DATASET_ACCESS_KEY", ""),
			SecretKey:   getEnv("DATASET_SECRET_KEY", ""),
			UseSSL:      getEnvBool("DATASET_USE_SSL", true),
			Compression: strings.ToLower(getEnv("DATASET_COMPRESSION", CompressionNone)),
			TempDir:     getEnv("DATASET_TEMP_DIR", os.TempDir()),
		},
		Game: GameConfig{
			MaxSessions: getEnvInt("GAME_MAX_SESSIONS", 10000),
		},
	}, nil
}

func (c *Config) Validate() error {
	if err := c.Dataset.Validate(); err != nil {
		return err
	}
	if c.Game.MaxSessions <= 0 {
		return fmt.Errorf("GAME_MAX_SESSIONS must be positive, got %d", c.Game.MaxSessions)
	}
	if c.App.HttpTimeoutSeconds <= 0 {
		return fmt.Errorf("APP_HTTP_TIMEOUT_SECONDS must be positive, got %d", c.App.HttpTimeoutSeconds)
	}
	return nil
}

func (c *DatasetConfig) Validate() error {
	switch c.Provider {
	case ProviderDir, ProviderHTTP:
		if c.Location == "" {
			return fmt.Errorf("DATASET_LOCATION is required for the %s provider", c.Provider)
		}
	case ProviderS3:
		if c.Bucket == "" {
			return fmt.Errorf("DATASET_BUCKET is required for the s3 provider")
		}
	case ProviderMinio:
		if c.Bucket == "" || c.Endpoint == "" {
			return fmt.Errorf("DATASET_BUCKET and DATASET_ENDPOINT are required for the minio provider")
		}
	default:
		return fmt.Errorf("unsupported DATASET_PROVIDER %q", c.Provider)
	}

	switch c.Compression {
	case CompressionNone, CompressionZstd:
	default:
		return fmt.Errorf("unsupported DATASET_COMPRESSION %q", c.Compression)
	}
	return nil
}

func parseEnvironment(envStr string) Environment {
	env := Environment(strings.ToLower(envStr))

	switch env {
	case Development, Production:
		return env
	default:
		return Development
	}
}

func getLogLevel(env Environment) string {
	if env == Production {
		return getEnv("APP_LOG_LEVEL", "info")
	}

	return getEnv("APP_LOG_LEVEL", "debug")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
