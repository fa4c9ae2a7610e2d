package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/questlog/questlog/internal/logger"
)

const (
	defaultListenAddr  = "localhost:8000"
	defaultLogLevel    = logger.LevelInfo
	defaultRedisAddr   = "localhost:6379"
	defaultEnvironment = logger.EnvProduction
	defaultNamespace   = "ql"
)

type Config struct {
	// Logging level
	LogLevel string

	// Address the questlog service listens on
	ListenAddr string

	// Postgres to connect to
	DatabaseDSN string

	// Redis for version vectors, cached views and rate windows
	RedisAddr string

	// Secret key for signing JWT tokens (symmetric)
	SecretKey string

	// Salt for account-identifier hashes in the rate limiter store
	LimiterSalt string

	// Key namespace prefix shared by all Redis keys
	Namespace string

	// Environment (dev, prod). Also part of the Redis key prefix, so
	// stacked deployments don't read each other's entries.
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLogLevel,
		ListenAddr:  defaultListenAddr,
		RedisAddr:   defaultRedisAddr,
		Namespace:   defaultNamespace,
		Environment: defaultEnvironment,
	}
}

// Load variables from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":  setString(&c.ListenAddr),
		"DATABASE_URI": setString(&c.DatabaseDSN),
		"REDIS_ADDR":   setString(&c.RedisAddr),
		"SECRET_KEY":   setString(&c.SecretKey),
		"LIMITER_SALT": setString(&c.LimiterSalt),
		"LOG_LEVEL":    setString(&c.LogLevel),
		"NAMESPACE":    setString(&c.Namespace),
		"ENVIRONMENT":  setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("questlog", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.RedisAddr, "redis", "r", c.RedisAddr, "Redis address")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVar(&c.LimiterSalt, "limiter-salt", c.LimiterSalt, "Rate limiter identity hash salt")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}

func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("secret key must be set")
	}
	if c.DatabaseDSN == "" {
		return errors.New("database DSN must be set")
	}
	return nil
}
