package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config groups every runtime setting. Values come from env vars, optionally from a .env file.
type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	DB      DBConfig
	JWT     JWTConfig
	Monitor MonitorConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Log     LogConfig
}

type AppConfig struct {
	Env          string // development, staging, production
	Name         string
	SeedDefaults bool
}

type HTTPConfig struct {
	Host string
	Port int
}

// Addr returns host:port for app.Listen.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DBConfig describes the store. DatabaseURL wins over the discrete fields when set.
type DBConfig struct {
	Driver      string
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// DSN returns the connection string handed to the gorm postgres driver.
func (c DBConfig) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s&TimeZone=Asia/Jakarta", c.SSLMode),
	}
	return u.String()
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type MonitorConfig struct {
	Interval time.Duration
}

// RedisConfig: empty Addr disables the idempotency cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig: empty Brokers disables the alert relay.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type LogConfig struct {
	Level string
}

// Load reads configuration from the environment (and ./.env when present).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	interval, err := getDuration(v, "MONITOR_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, fmt.Errorf("MONITOR_INTERVAL must be positive, got %s", interval)
	}

	cfg := &Config{
		App: AppConfig{
			Env:          getString(v, "APP_ENV", "development"),
			Name:         getString(v, "APP_NAME", "Kasir POS v1.0"),
			SeedDefaults: getBool(v, "SEED_DEFAULTS", true),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 3000),
		},
		DB: DBConfig{
			Driver:      getString(v, "DB_DRIVER", DriverPostgres),
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "kasir"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", "your-super-secret-key-change-in-production"),
			Issuer:     getString(v, "JWT_ISSUER", "go-kasir-ws"),
			Expiration: time.Duration(getInt(v, "JWT_EXPIRATION_MINUTES", 24*60)) * time.Minute,
		},
		Monitor: MonitorConfig{Interval: interval},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getString(v, "KAFKA_BROKERS", "")),
			Topic:   getString(v, "KAFKA_TOPIC", "pos.stock-alerts"),
		},
		Log: LogConfig{
			Level: getString(v, "LOG_LEVEL", "info"),
		},
	}

	switch cfg.DB.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	switch v.Get(key).(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return n
	default:
		return v.GetInt(key)
	}
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return b
}

func getDuration(v *viper.Viper, key string, def time.Duration) (time.Duration, error) {
	if !v.IsSet(key) {
		return def, nil
	}
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
