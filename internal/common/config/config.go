package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	MySQL struct {
		Host            string        `env:"DB_HOST" envDefault:"localhost"`
		Port            int           `env:"DB_PORT" envDefault:"3306"`
		User            string        `env:"DB_USER" envDefault:"root"`
		Password        string        `env:"DB_PASSWORD" envDefault:""`
		Database        string        `env:"DB_NAME" envDefault:"giveaway"`
		MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	}

	Redis struct {
		// Optional. When Addr is empty the draw guard falls back to an
		// in-process lock table.
		Addr     string `env:"REDIS_ADDR" envDefault:""`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Auth struct {
		JWTSecret string   `env:"JWT_SECRET,required"`
		AdminIDs  []string `env:"ADMIN_IDS" envSeparator:","`
	}

	Twitch struct {
		Channel string `env:"TWITCH_CHANNEL" envDefault:""`
		// Bot account credentials. Without ChatOAuth the chat sink stays
		// read-only and announcements are skipped.
		Username  string `env:"TWITCH_USERNAME" envDefault:""`
		ChatOAuth string `env:"TWITCH_CHAT_OAUTH" envDefault:""`
	}

	Notify struct {
		WebhookURL string        `env:"NOTIFY_WEBHOOK_URL" envDefault:""`
		Timeout    time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`
	}

	AutoDraw struct {
		Interval time.Duration `env:"AUTO_DRAW_INTERVAL" envDefault:"60s"`
	}
}

// DSN builds the MySQL connection string. parseTime makes the driver scan
// DATETIME columns into time.Time; UTC keeps draw_at comparisons on one
// absolute timeline regardless of the server's zone configuration.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		c.MySQL.User, c.MySQL.Password, c.MySQL.Host, c.MySQL.Port, c.MySQL.Database)
}

func Load() (*Config, error) {
	// A missing .env file is fine; production sets variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
