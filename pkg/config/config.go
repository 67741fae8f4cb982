package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Document store drivers.
const (
	DocStorePostgres = "postgres"
	DocStoreMemory   = "memory"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	DocStore   DocStoreConfig
	Attendance AttendanceConfig
	Cache      CacheConfig
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
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DocStoreConfig selects the document store backing the collections.
type DocStoreConfig struct {
	Driver        string
	NotifyChannel string
	AutoMigrate   bool
}

// AttendanceConfig holds the department-wide attendance rules.
type AttendanceConfig struct {
	Department      string
	CutoffHour      int
	DefaultStart    string
	DefaultEnd      string
	DefaultLockHHMM string
	LegacyCleanup   bool
	CleanupWorkers  int
	CleanupRetries  int
}

// CacheConfig governs Redis-backed lookups.
type CacheConfig struct {
	Enabled      bool
	ClassMetaTTL time.Duration
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

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
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: splitAndTrim(v.GetString("JWT_AUDIENCE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.DocStore = DocStoreConfig{
		Driver:        strings.ToLower(v.GetString("DOCSTORE_DRIVER")),
		NotifyChannel: v.GetString("DOCSTORE_NOTIFY_CHANNEL"),
		AutoMigrate:   v.GetBool("DOCSTORE_AUTO_MIGRATE"),
	}

	cutoff := v.GetInt("ATTENDANCE_CUTOFF_HOUR")
	if cutoff < 0 || cutoff > 24 {
		cutoff = 21
	}
	cfg.Attendance = AttendanceConfig{
		Department:      strings.ToUpper(strings.TrimSpace(v.GetString("ATTENDANCE_DEPARTMENT"))),
		CutoffHour:      cutoff,
		DefaultStart:    v.GetString("ATTENDANCE_WINDOW_START"),
		DefaultEnd:      v.GetString("ATTENDANCE_WINDOW_END"),
		DefaultLockHHMM: v.GetString("ATTENDANCE_DEFAULT_LOCK"),
		LegacyCleanup:   v.GetBool("ATTENDANCE_LEGACY_CLEANUP"),
		CleanupWorkers:  v.GetInt("ATTENDANCE_CLEANUP_WORKERS"),
		CleanupRetries:  v.GetInt("ATTENDANCE_CLEANUP_RETRIES"),
	}

	cfg.Cache = CacheConfig{
		Enabled:      v.GetBool("ENABLE_CACHE"),
		ClassMetaTTL: parseDuration(v.GetString("CLASS_META_CACHE_TTL"), 10*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "dept_attendance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "dept-attendance")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DOCSTORE_DRIVER", DocStorePostgres)
	v.SetDefault("DOCSTORE_NOTIFY_CHANNEL", "docstore_changes")
	v.SetDefault("DOCSTORE_AUTO_MIGRATE", true)

	v.SetDefault("ATTENDANCE_DEPARTMENT", "CSE")
	v.SetDefault("ATTENDANCE_CUTOFF_HOUR", 21)
	v.SetDefault("ATTENDANCE_WINDOW_START", "06:00")
	v.SetDefault("ATTENDANCE_WINDOW_END", "08:20")
	v.SetDefault("ATTENDANCE_DEFAULT_LOCK", "15:00")
	v.SetDefault("ATTENDANCE_LEGACY_CLEANUP", true)
	v.SetDefault("ATTENDANCE_CLEANUP_WORKERS", 1)
	v.SetDefault("ATTENDANCE_CLEANUP_RETRIES", 3)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CLASS_META_CACHE_TTL", "10m")
}

func isMissingFile(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such file or directory")
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
