package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Realtime RealtimeConfig
	Hardware HardwareConfig
	CORS     CORSConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
	Seed         bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig governs the reader-list cache.
type CacheConfig struct {
	Enabled    bool
	ReadersTTL time.Duration
}

// RealtimeConfig tunes the websocket fan-out.
type RealtimeConfig struct {
	Path         string
	SendBuffer   int
	WriteTimeout time.Duration
	PingInterval time.Duration
	LightColor   string
	AlarmSound   string
}

// HardwareConfig points at the serial actuator. When disabled, commands are only logged.
type HardwareConfig struct {
	Enabled    bool
	Port       string
	BaudRate   int
	QueueSize  int
	MaxRetries int
	RetryDelay time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
		Seed:         v.GetBool("DB_SEED"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_READERS_CACHE"),
		ReadersTTL: parseDuration(v.GetString("READERS_CACHE_TTL"), 30*time.Second),
	}

	sendBuffer := v.GetInt("REALTIME_SEND_BUFFER")
	if sendBuffer <= 0 {
		sendBuffer = 16
	}
	cfg.Realtime = RealtimeConfig{
		Path:         v.GetString("REALTIME_PATH"),
		SendBuffer:   sendBuffer,
		WriteTimeout: parseDuration(v.GetString("REALTIME_WRITE_TIMEOUT"), 10*time.Second),
		PingInterval: parseDuration(v.GetString("REALTIME_PING_INTERVAL"), 30*time.Second),
		LightColor:   v.GetString("REALTIME_LIGHT_COLOR"),
		AlarmSound:   v.GetString("REALTIME_ALARM_SOUND"),
	}

	cfg.Hardware = HardwareConfig{
		Enabled:    v.GetBool("HARDWARE_ENABLED"),
		Port:       v.GetString("HARDWARE_PORT"),
		BaudRate:   v.GetInt("HARDWARE_BAUD_RATE"),
		QueueSize:  v.GetInt("HARDWARE_QUEUE_SIZE"),
		MaxRetries: v.GetInt("HARDWARE_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("HARDWARE_RETRY_DELAY"), 250*time.Millisecond),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3001)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "student_housing")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("DB_SEED", false)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_READERS_CACHE", false)
	v.SetDefault("READERS_CACHE_TTL", "30s")

	v.SetDefault("REALTIME_PATH", "/socket")
	v.SetDefault("REALTIME_SEND_BUFFER", 16)
	v.SetDefault("REALTIME_WRITE_TIMEOUT", "10s")
	v.SetDefault("REALTIME_PING_INTERVAL", "30s")
	v.SetDefault("REALTIME_LIGHT_COLOR", "orange")
	v.SetDefault("REALTIME_ALARM_SOUND", "siren")

	v.SetDefault("HARDWARE_ENABLED", false)
	v.SetDefault("HARDWARE_PORT", "/dev/ttyACM0")
	v.SetDefault("HARDWARE_BAUD_RATE", 9600)
	v.SetDefault("HARDWARE_QUEUE_SIZE", 16)
	v.SetDefault("HARDWARE_MAX_RETRIES", 2)
	v.SetDefault("HARDWARE_RETRY_DELAY", "250ms")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
