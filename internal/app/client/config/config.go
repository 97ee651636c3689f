package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerAddress = "localhost:8080"
	defaultLogLevel      = "warn"
	defaultEnv           = "local"
	defaultConfigDir     = ".reptisync"
	defaultBatchSize     = 100
	configName           = "config"
	configType           = "yaml"
)

type Config struct {
	Env           string        `mapstructure:"app_env"`
	ServerAddress string        `mapstructure:"server_address"`
	Token         string        `mapstructure:"token"`
	LogLevel      string        `mapstructure:"log_level"`
	ConfigDir     string        `mapstructure:"config_dir"`
	DataPath      string        `mapstructure:"data_path"`
	BatchSize     int           `mapstructure:"batch_size"`
	Timeout       time.Duration `mapstructure:"timeout"`
	EnableTLS     bool          `mapstructure:"enable_tls"`

	// файл, из которого прочитана конфигурация, туда же пишет Save
	file string
}

// Load читает .env (если есть), YAML из configFile или ~/.reptisync/config.yaml и переменные окружения.
func Load(configFile string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}

	v := viper.New()
	v.SetDefault("app_env", defaultEnv)
	v.SetDefault("server_address", defaultServerAddress)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("batch_size", defaultBatchSize)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("enable_tls", false)
	v.SetDefault("token", "")
	v.SetEnvPrefix("REPTISYNC")
	v.AutomaticEnv()

	configDir := os.Getenv("REPTISYNC_CONFIG_DIR")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		configDir = filepath.Join(home, defaultConfigDir)
	}
	v.SetDefault("config_dir", configDir)
	v.SetDefault("data_path", filepath.Join(configDir, "data.db"))

	file := configFile
	if file == "" {
		file = filepath.Join(configDir, configName+"."+configType)
	}
	v.SetConfigFile(file)
	v.SetConfigType(configType)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !os.IsNotExist(err) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения %s: %w", file, err)
		}
		// Конфиг не найден, используем значения по умолчанию
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}
	cfg.file = file

	if err := os.MkdirAll(cfg.ConfigDir, 0o700); err != nil {
		return nil, fmt.Errorf("ошибка создания директории конфигурации: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("ошибка конфигурации: %w", err)
	}
	return cfg, nil
}

// Save сохраняет адрес сервера и токен, которые задает init.
func (c *Config) Save() error {
	v := viper.New()
	v.Set("server_address", c.ServerAddress)
	v.Set("token", c.Token)
	v.Set("enable_tls", c.EnableTLS)
	v.Set("batch_size", c.BatchSize)

	if err := os.MkdirAll(filepath.Dir(c.file), 0o700); err != nil {
		return fmt.Errorf("ошибка создания директории конфигурации: %w", err)
	}
	if err := v.WriteConfigAs(c.file); err != nil {
		return fmt.Errorf("ошибка записи конфигурации: %w", err)
	}
	return os.Chmod(c.file, 0o600)
}

// File путь к файлу конфигурации.
func (c *Config) File() string {
	return c.file
}

func (c *Config) validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server_address не может быть пустым")
	}
	if c.DataPath == "" {
		return fmt.Errorf("data_path не может быть пустым")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size должен быть положительным")
	}
	return nil
}

// BaseURL адрес сервера со схемой.
func (c *Config) BaseURL() string {
	scheme := "http://"
	if c.EnableTLS {
		scheme = "https://"
	}
	return scheme + c.ServerAddress
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == ""
}
