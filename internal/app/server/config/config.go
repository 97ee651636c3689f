package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

type Config struct {
	Env    string
	DB     DB
	Server Server
	Auth   Auth
	Sync   Sync
	Logger Logger
}

type DB struct {
	DatabaseURI string `mapstructure:"database_uri"`
	Migrations  string `mapstructure:"migrations_path"`
}

type Server struct {
	RunAddress      string        `mapstructure:"run_address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

type Auth struct {
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	CacheTTL  time.Duration `mapstructure:"auth_cache_ttl"`
	CacheSize int           `mapstructure:"auth_cache_size"`
}

type Sync struct {
	MaxBatchSize int `mapstructure:"max_batch_size"`
}

type Logger struct {
	LogLevel string `mapstructure:"log_level"`
}

// MustLoad читает .env (если есть) и переменные окружения. Паникует на невалидной конфигурации.
func MustLoad() *Config {
	cfg, err := Load(envPath)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// Load собирает конфигурацию из файла окружения и переменных окружения.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env: v.GetString("app_env"),
		DB: DB{
			DatabaseURI: v.GetString("database_uri"),
			Migrations:  v.GetString("migrations_path"),
		},
		Server: Server{
			RunAddress:      v.GetString("run_address"),
			ReadTimeout:     v.GetDuration("read_timeout"),
			WriteTimeout:    v.GetDuration("write_timeout"),
			ShutdownTimeout: v.GetDuration("shutdown_timeout"),
			MaxBodyBytes:    v.GetInt64("max_body_bytes"),
		},
		Auth: Auth{
			TokenTTL:  v.GetDuration("token_ttl"),
			CacheTTL:  v.GetDuration("auth_cache_ttl"),
			CacheSize: v.GetInt("auth_cache_size"),
		},
		Sync:   Sync{MaxBatchSize: v.GetInt("max_batch_size")},
		Logger: Logger{LogLevel: v.GetString("log_level")},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", EnvLocal)
	v.SetDefault("database_uri", "sqlite://reptisync.db")
	v.SetDefault("migrations_path", "migrations")
	v.SetDefault("run_address", ":8080")
	v.SetDefault("read_timeout", 15*time.Second)
	v.SetDefault("write_timeout", 30*time.Second)
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("max_body_bytes", 4<<20)
	v.SetDefault("token_ttl", 30*24*time.Hour)
	v.SetDefault("auth_cache_ttl", time.Minute)
	v.SetDefault("auth_cache_size", 10_000)
	v.SetDefault("max_batch_size", 500)
	v.SetDefault("log_level", "info")
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown APP_ENV %q", c.Env)
	}
	if _, err := c.DB.Dialect(); err != nil {
		return err
	}
	if c.Sync.MaxBatchSize <= 0 {
		return fmt.Errorf("MAX_BATCH_SIZE must be positive")
	}
	if c.Auth.CacheSize <= 0 {
		return fmt.Errorf("AUTH_CACHE_SIZE must be positive")
	}
	return nil
}

// Dialect определяет тип хранилища по схеме DATABASE_URI.
func (d DB) Dialect() (string, error) {
	u, err := url.Parse(d.DatabaseURI)
	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URI: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return DialectPostgres, nil
	case "sqlite":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported DATABASE_URI scheme %q", u.Scheme)
	}
}

// SQLitePath возвращает путь к файлу базы из sqlite:// URI.
func (d DB) SQLitePath() string {
	return strings.TrimPrefix(d.DatabaseURI, "sqlite://")
}
