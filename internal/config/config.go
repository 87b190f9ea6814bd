// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Repository   RepositoryConfig   `mapstructure:"repository"`
	Auth         AuthConfig         `mapstructure:"auth"`
	AI           AIConfig           `mapstructure:"ai"`
	Gamification GamificationConfig `mapstructure:"gamification"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimitRPM    int           `mapstructure:"rate_limit_rpm"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int32         `mapstructure:"max_connections"`
	MinConnections int32         `mapstructure:"min_connections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AutoMigrate    bool          `mapstructure:"auto_migrate"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type"` // "postgres" или "inmemory"
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type AIConfig struct {
	APIKey             string        `mapstructure:"api_key"`
	BaseURL            string        `mapstructure:"base_url"`
	Model              string        `mapstructure:"model"`
	TranscriptionModel string        `mapstructure:"transcription_model"`
	Temperature        float64       `mapstructure:"temperature"`
	MaxTokens          int           `mapstructure:"max_tokens"`
	Timeout            time.Duration `mapstructure:"timeout"`
	MaxRetries         int           `mapstructure:"max_retries"`
}

type GamificationConfig struct {
	// часовой пояс, в котором считаются календарные дни для стрика
	Timezone string `mapstructure:"timezone"`
}

const RepositoryPostgres = "postgres"
const RepositoryInMemory = "inmemory"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit_rpm", 100)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3001"})

	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("logging.development", false)
	v.SetDefault("repository.type", RepositoryInMemory)
	v.SetDefault("auth.token_ttl", 30*24*time.Hour)
	// пустые значения по умолчанию нужны, чтобы Unmarshal видел ключи из окружения
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("database.url", "")
	v.SetDefault("ai.api_key", "")

	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-4")
	v.SetDefault("ai.transcription_model", "whisper-1")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.max_tokens", 1000)
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.max_retries", 2)

	v.SetDefault("gamification.timezone", "Local")
}

// Load читает config.yml (путь можно передать явно) и переопределения из окружения.
// Отсутствие файла не ошибка - тогда работают значения по умолчанию и env.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TASKQUEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("ai.api_key", "TASKQUEST_AI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("привязка OPENAI_API_KEY: %w", err)
	}
	if err := v.BindEnv("database.url", "TASKQUEST_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("привязка DATABASE_URL: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("ошибка чтения конфига: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфига: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositoryPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url обязателен для repository.type=%s", RepositoryPostgres)
		}
	case RepositoryInMemory:
	default:
		return fmt.Errorf("неизвестный repository.type: %q", c.Repository.Type)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret не задан")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	// запрос к модели со всеми повторами должен уложиться в ответ сервера
	if c.AI.Timeout > 0 && c.Server.WriteTimeout > 0 && c.AI.Timeout >= c.Server.WriteTimeout {
		return fmt.Errorf("ai.timeout (%s) должен быть меньше server.write_timeout (%s)",
			c.AI.Timeout, c.Server.WriteTimeout)
	}
	return nil
}

// Location - часовой пояс для календарных дней стрика
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Gamification.Timezone)
	if err != nil {
		return nil, fmt.Errorf("gamification.timezone: %w", err)
	}
	return loc, nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
