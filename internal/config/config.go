package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Configuration is loaded from a yaml file (via -c flag or CONFIG_PATH) with
// environment overrides through cleanenv. The cache behavioral toggles
// (NO_CACHE, CACHE_DEBUG) are deliberately NOT part of this snapshot: they
// are read per call through cache.EnvToggles.

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Cache     CacheConfig     `yaml:"cache"`
	Doji      DojiConfig      `yaml:"doji"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Scheduler SchedulerConfig `yaml:"schedulers"`
	Logger    LoggerConfig    `yaml:"logger"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR" env-default:":3000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
	StaticDir       string        `yaml:"static_dir" env-default:"public"`
	RateLimit       int           `yaml:"rate_limit" env-default:"100"`
	RateWindow      time.Duration `yaml:"rate_window" env-default:"60s"`
}

type PostgresConfig struct {
	Host            string        `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port            int           `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User            string        `yaml:"user" env:"POSTGRES_USER" env-default:"postgres"`
	Password        string        `yaml:"password" env:"POSTGRES_PASSWORD" env-default:"postgres"`
	DBName          string        `yaml:"dbname" env:"POSTGRES_DB" env-default:"giavang"`
	SSLMode         string        `yaml:"sslmode" env-default:"disable"`
	Timeout         time.Duration `yaml:"timeout" env-default:"5s"`
	MaxConns        int32         `yaml:"max_conns" env-default:"10"`
	MinConns        int32         `yaml:"min_conns" env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env-default:"30m"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"1"`
}

type CacheConfig struct {
	// LocalCapacity bounds the in-process memo tier (FIFO eviction).
	LocalCapacity int           `yaml:"local_capacity" env-default:"256"`
	LocalTTL      time.Duration `yaml:"local_ttl" env-default:"1h"`
}

type DojiConfig struct {
	BaseURL   string        `yaml:"base_url" env-default:"http://giavang.doji.vn/api/giavang"`
	APIKey    string        `yaml:"api_key" env:"DOJI_API_KEY"`
	Timeout   time.Duration `yaml:"timeout" env-default:"30s"`
	Retries   int           `yaml:"retries" env-default:"2"`
	UserAgent string        `yaml:"user_agent" env-default:"gia-vang-365/1.0"`
}

type TelegramConfig struct {
	Enabled         bool          `yaml:"enabled" env:"TELEGRAM_ENABLED" env-default:"false"`
	Token           string        `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	LongPollTimeout time.Duration `yaml:"long_poll_timeout" env-default:"10s"`
}

type SchedulerConfig struct {
	Enabled       bool   `yaml:"enabled" env-default:"true"`
	Timezone      string `yaml:"timezone" env-default:"Asia/Ho_Chi_Minh"`
	SnapshotSpec  string `yaml:"snapshot_spec" env-default:"0 */6 * * *"`
	BroadcastSpec string `yaml:"broadcast_spec" env-default:"0 7 * * *"`
	// SnapshotQuote is the feed row recorded into history every tick.
	SnapshotQuote string `yaml:"snapshot_quote" env-default:"DOJI HN lẻ"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"  env-default:"info"` // debug|info|warn|error
	Format string `yaml:"format" env-default:"text"` // text|json
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	configPath := fetchConfigPath()
	if configPath != "" {
		if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
			return nil, err
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func fetchConfigPath() string {
	var res string
	flag.StringVar(&res, "c", "", "config file path")
	flag.Parse()
	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}
	return res
}
