package config

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/museum/pkg/config"
	"github.com/Skotchmaster/museum/pkg/tokens"
)

const (
	StoreDB    = "db"
	StoreRedis = "redis"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ExpiryMargin  time.Duration

	CookieSameSite string
	CookieSecure   bool
	CookiePath     string
	CORSOrigins    []string

	RefreshStore  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	PurgeInterval time.Duration
}

// Load reads .env when present and then the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v, using system environment variables", err)
	}

	return Config{
		ServiceName: config.EnvDefault("SERVICE_NAME", "museum"),
		ServerPort:  config.EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    config.EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		AccessSecret:  []byte(os.Getenv("ACCESS_SECRET")),
		RefreshSecret: []byte(os.Getenv("REFRESH_SECRET")),
		AccessTTL:     config.EnvDurationDefault("ACCESS_TTL", tokens.DefaultAccessTTL),
		RefreshTTL:    config.EnvDurationDefault("REFRESH_TTL", tokens.DefaultRefreshTTL),
		ExpiryMargin:  config.EnvDurationDefault("EXPIRY_MARGIN", tokens.DefaultMargin),

		CookieSameSite: strings.ToLower(config.EnvDefault("COOKIE_SAMESITE", "strict")),
		CookieSecure:   config.EnvBoolDefault("COOKIE_SECURE", false),
		CookiePath:     config.EnvDefault("COOKIE_PATH", "/api/auth"),
		CORSOrigins:    config.CSV(os.Getenv("CORS_ORIGINS")),

		RefreshStore:  strings.ToLower(config.EnvDefault("REFRESH_STORE", StoreDB)),
		RedisAddr:     config.EnvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       config.EnvIntDefault("REDIS_DB", 0),

		KafkaBrokers: config.CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   config.EnvDefault("KAFKA_TOPIC", "user_events"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    config.EnvDefault("ES_INDEX", "museums"),

		PurgeInterval: config.EnvDurationDefault("PURGE_INTERVAL", time.Hour),
	}
}

func (c Config) Validate() error {
	var problems []error
	if c.DatabaseURL == "" {
		problems = append(problems, errors.New("DATABASE_URL is empty"))
	}
	if len(c.AccessSecret) == 0 {
		problems = append(problems, errors.New("ACCESS_SECRET is empty"))
	}
	if len(c.RefreshSecret) == 0 {
		problems = append(problems, errors.New("REFRESH_SECRET is empty"))
	}
	if len(c.AccessSecret) > 0 && bytes.Equal(c.AccessSecret, c.RefreshSecret) {
		problems = append(problems, errors.New("ACCESS_SECRET and REFRESH_SECRET must differ"))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		problems = append(problems, errors.New("token lifetimes must be positive"))
	}
	if c.AccessTTL >= c.RefreshTTL {
		problems = append(problems, errors.New("ACCESS_TTL must be shorter than REFRESH_TTL"))
	}
	switch c.CookieSameSite {
	case "strict", "lax", "none":
	default:
		problems = append(problems, fmt.Errorf("COOKIE_SAMESITE %q is not one of strict, lax, none", c.CookieSameSite))
	}
	switch c.RefreshStore {
	case StoreDB:
	case StoreRedis:
		if c.RedisAddr == "" {
			problems = append(problems, errors.New("REDIS_ADDR is empty"))
		}
	default:
		problems = append(problems, fmt.Errorf("REFRESH_STORE %q is not one of db, redis", c.RefreshStore))
	}
	return errors.Join(problems...)
}

// Addr is the listen address for the http server.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.ServerPort) }
