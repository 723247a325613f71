package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/dapurasri/backoffice/pkg/logger"
	"github.com/dapurasri/backoffice/pkg/pg"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

var config *Config

// Config holds every configuration value the binaries read. Nothing else in
// the module reads the environment directly.
type Config struct {
	AppEnv              string `env:"APP_ENV,default=dev"`
	AppName             string `env:"APP_NAME,default=dapur_asri"`
	AppTimezone         string `env:"APP_TIMEZONE,default=Asia/Jakarta"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR,default=:9100"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI,default=/metrics"`

	HttpListenAddr     string        `env:"HTTP_LISTEN_ADDR,default=:8080"`
	HttpRequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT,default=10s"`
	CorsAllowOrigin    string        `env:"CORS_ALLOW_ORIGIN"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT,default=5432"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT,default=5432"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=dapurasri:"`

	PromNamespace string `env:"PROM_NAMESPACE,default=dapurasri"`

	AuthJWTSecret string `env:"AUTH_JWT_SECRET"`

	NumberingBackend  string        `env:"NUMBERING_BACKEND,default=db"`
	DraftTTL          time.Duration `env:"DRAFT_TTL,default=2h"`
	DashboardCacheTTL time.Duration `env:"DASHBOARD_CACHE_TTL,default=24h"`

	EventsStream        string        `env:"EVENTS_STREAM,default=documents"`
	EventsConsumerGroup string        `env:"EVENTS_CONSUMER_GROUP,default=dashboard"`
	EventsConsumerName  string        `env:"EVENTS_CONSUMER_NAME"`
	EventsMaxLen        int64         `env:"EVENTS_MAX_LEN,default=10000"`
	EventsPollBlock     time.Duration `env:"EVENTS_POLL_BLOCK,default=2s"`
	EventsClaimIdle     time.Duration `env:"EVENTS_CLAIM_IDLE,default=1m"`
	ProcessorWorkers    int           `env:"PROCESSOR_WORKERS,default=4"`
	DashboardRefreshAt  string        `env:"DASHBOARD_REFRESH_AT,default=01:00"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	_, err = env.UnmarshalFromEnviron(c)
	if err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}

	if _, err = c.Location(); err != nil {
		return errors.Wrapf(err, "invalid APP_TIMEZONE %q", c.AppTimezone)
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

// Location is the business timezone used to decide what "today" is.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.AppTimezone)
}

func (c *Config) ReadDB() pg.Config {
	return pg.Config{
		User:     c.PostgresReadUser,
		Host:     c.PostgresReadHost,
		Port:     c.PostgresReadPort,
		Password: c.PostgresReadPassword,
		Database: c.PostgresReadDatabase,
	}
}

func (c *Config) WriteDB() pg.Config {
	return pg.Config{
		User:     c.PostgresWriteUser,
		Host:     c.PostgresWriteHost,
		Port:     c.PostgresWritePort,
		Password: c.PostgresWritePassword,
		Database: c.PostgresWriteDatabase,
	}
}

func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}
