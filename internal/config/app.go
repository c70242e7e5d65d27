package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPServer struct {
	Port string `mapstructure:"port"`
}

type DbServer struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Pass     string `mapstructure:"pass"`
	Name     string `mapstructure:"name"`
	MaxConns int32  `mapstructure:"max_conns"`
	Migrate  bool   `mapstructure:"migrate"`
}

func (config *DbServer) GetConnectionStr() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		config.User, config.Pass, config.Host, config.Port, config.Name,
	)
}

type Logging struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type Simulation struct {
	TickPeriodMs    int   `mapstructure:"tick_period_ms"`
	QueueSize       int   `mapstructure:"queue_size"`
	HistoryCacheMax int64 `mapstructure:"history_cache_max"`
	ReplyTimeoutMs  int   `mapstructure:"reply_timeout_ms"`
}

func (s Simulation) TickPeriod() time.Duration {
	return time.Duration(s.TickPeriodMs) * time.Millisecond
}

// ReplyTimeout bounds how long an HTTP caller waits for the tick loop.
func (s Simulation) ReplyTimeout() time.Duration {
	return time.Duration(s.ReplyTimeoutMs) * time.Millisecond
}

// Snapshots selects where rate history is read from: "dir", "postgres" or "http".
type Snapshots struct {
	Source  string `mapstructure:"source"`
	Dir     string `mapstructure:"dir"`
	BaseURL string `mapstructure:"base_url"`
}

type HTTPClient struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type Broadcast struct {
	SendBuffer int `mapstructure:"send_buffer"`
}

type Report struct {
	IntervalSec int `mapstructure:"interval_sec"`
}

type AppConfig struct {
	HTTPServer HTTPServer `mapstructure:"http_server"`
	DbServer   DbServer   `mapstructure:"db_server"`
	HTTPClient HTTPClient `mapstructure:"http_client"`
	Logging    Logging    `mapstructure:"logging"`
	Simulation Simulation `mapstructure:"simulation"`
	Snapshots  Snapshots  `mapstructure:"snapshots"`
	Broadcast  Broadcast  `mapstructure:"broadcast"`
	Report     Report     `mapstructure:"report"`
}

// Init loads configuration from an optional YAML file at path, a .env file
// and SIMEX_* environment variables, in increasing order of precedence.
func Init(path string) (*AppConfig, error) {
	var cfg AppConfig

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("SIMEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_server.port", "8080")

	v.SetDefault("db_server.host", "localhost")
	v.SetDefault("db_server.port", "5432")
	v.SetDefault("db_server.user", "simex")
	v.SetDefault("db_server.pass", "simex")
	v.SetDefault("db_server.name", "simex")
	v.SetDefault("db_server.max_conns", 10)
	v.SetDefault("db_server.migrate", true)

	v.SetDefault("http_client.timeout_seconds", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_age_days", 7)

	v.SetDefault("simulation.tick_period_ms", 1000)
	v.SetDefault("simulation.queue_size", 256)
	v.SetDefault("simulation.history_cache_max", 1_000_000)
	v.SetDefault("simulation.reply_timeout_ms", 5000)

	v.SetDefault("snapshots.source", "dir")
	v.SetDefault("snapshots.dir", "history")
	v.SetDefault("snapshots.base_url", "")

	v.SetDefault("broadcast.send_buffer", 256)

	v.SetDefault("report.interval_sec", 30)
}

func (cfg *AppConfig) validate() error {
	if cfg.Simulation.TickPeriodMs <= 0 {
		return fmt.Errorf("simulation.tick_period_ms must be positive, got %d", cfg.Simulation.TickPeriodMs)
	}
	if cfg.Simulation.ReplyTimeoutMs <= 0 {
		return fmt.Errorf("simulation.reply_timeout_ms must be positive, got %d", cfg.Simulation.ReplyTimeoutMs)
	}
	if cfg.Simulation.QueueSize <= 0 {
		return fmt.Errorf("simulation.queue_size must be positive, got %d", cfg.Simulation.QueueSize)
	}
	switch cfg.Snapshots.Source {
	case "dir", "postgres":
	case "http":
		if cfg.Snapshots.BaseURL == "" {
			return errors.New("snapshots.base_url is required for the http snapshot source")
		}
	default:
		return fmt.Errorf("unknown snapshots.source %q", cfg.Snapshots.Source)
	}
	return nil
}
