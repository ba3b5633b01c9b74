package config

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Environment string `env:"ENV,       default=development"`
	LogLevel    string `env:"LOG_LEVEL, default=info"`

	HTTP      HTTPConfig
	DB        DBConfig
	Slots     SlotsConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Bot       BotConfig

	// EnvFileLoaded true, если переменные подхватились из .env
	EnvFileLoaded bool
}

type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR,        default=:8080"`
	AdminToken      string        `env:"ADMIN_TOKEN"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`
}

type DBConfig struct {
	Driver       string        `env:"DB_DRIVER,     default=sqlite"`
	DSN          string        `env:"DB_DSN,        default=booking.db"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT, default=5s"`
}

type SlotsConfig struct {
	Times            []string      `env:"SLOT_TIMES,             default=10:00,11:00,12:00,14:00,15:00,16:00"`
	DaysAhead        int           `env:"SLOT_DAYS_AHEAD,        default=14"`
	AutoGenerate     bool          `env:"SLOT_AUTOGENERATE,      default=false"`
	GenerateInterval time.Duration `env:"SLOT_GENERATE_INTERVAL, default=24h"`
}

type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS,   default=10"`
	Burst int     `env:"RATE_LIMIT_BURST, default=20"`
}

type RedisConfig struct {
	// Пустой адрес - блокировки внутри процесса
	Addr    string        `env:"REDIS_ADDR"`
	DB      int           `env:"REDIS_DB, default=0"`
	LockTTL time.Duration `env:"LOCK_TTL, default=10s"`
}

type BotConfig struct {
	TelegramToken string `env:"TELEGRAM_TOKEN"`
	APIURL        string `env:"API_URL,      default=http://localhost:8080/api"`
	MiniAppURL    string `env:"MINI_APP_URL"`
}

// Load читает .env (если есть) и переменные окружения
func Load(ctx context.Context) (*Config, error) {
	// Отсутствие .env не ошибка
	loaded := godotenv.Load(".env") == nil

	cfg, err := LoadFrom(ctx, envconfig.OsLookuper())
	if err != nil {
		return nil, err
	}
	cfg.EnvFileLoaded = loaded
	return cfg, nil
}

// LoadFrom читает конфигурацию из произвольного источника (в тестах - MapLookuper)
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет настройки API
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required but not set")
	}
	if c.DB.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}

	if len(c.Slots.Times) == 0 {
		return fmt.Errorf("SLOT_TIMES must not be empty")
	}
	seen := make(map[string]bool, len(c.Slots.Times))
	for _, t := range c.Slots.Times {
		parsed, err := time.Parse(model.TimeLayout, t)
		if err != nil || parsed.Format(model.TimeLayout) != t {
			return fmt.Errorf("SLOT_TIMES: %q is not HH:MM", t)
		}
		if seen[t] {
			return fmt.Errorf("SLOT_TIMES: duplicate time %q", t)
		}
		seen[t] = true
	}
	if c.Slots.DaysAhead < 1 || c.Slots.DaysAhead > 366 {
		return fmt.Errorf("SLOT_DAYS_AHEAD must be between 1 and 366")
	}
	if c.Slots.AutoGenerate && c.Slots.GenerateInterval <= 0 {
		return fmt.Errorf("SLOT_GENERATE_INTERVAL must be positive")
	}

	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	return nil
}

// ValidateBot проверяет настройки бота
func (c *Config) ValidateBot() error {
	if c.Bot.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}
	if c.Bot.APIURL == "" {
		return fmt.Errorf("API_URL is required but not set")
	}
	return nil
}

// IsProduction проверяет окружение
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
