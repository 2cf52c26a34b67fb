package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/novin-data/ingest-gateway/pkg/logger"
	"github.com/pkg/errors"
)

const ConfigTagName = "env"

var config *Config

// Config holds every env-sourced setting of the ingest gateway. Only this
// struct must be used to read configuration, no direct access to env, ini
// or any other config source should be made.
type Config struct {
	AppEnv   string `env:"APP_ENV,default=dev"`
	AppName  string `env:"APP_NAME,default=ingest_gateway"`
	AppDebug bool   `env:"APP_DEBUG,default=1"`

	StagingRawDir       string `env:"STAGING_RAW_DIR,default=./data/raw"`
	StagingProcessedDir string `env:"STAGING_PROCESSED_DIR,default=./data/processed"`
	StagingArchiveDir   string `env:"STAGING_ARCHIVE_DIR,default=./data/archive"`

	ScanInterval       time.Duration `env:"SCAN_INTERVAL,default=1m"`
	RouterParallelism  int           `env:"ROUTER_PARALLELISM,default=8"`
	ReferenceCacheTTL  time.Duration `env:"REFERENCE_CACHE_TTL,default=5m"`
	ReferenceCacheOff  bool          `env:"REFERENCE_CACHE_OFF"`
	MetricsListenAddr  string        `env:"METRICS_LISTEN_ADDR,default=:9100"`
	MetricsEndpointURI string        `env:"METRICS_ENDPOINT_URI,default=/metrics"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE,default=ingest"`

	LogLevel []string `env:"LOG_LEVEL"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)

	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
