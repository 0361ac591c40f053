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

	Database       DatabaseConfig
	Redis          RedisConfig
	JWT            JWTConfig
	CORS           CORSConfig
	Log            LogConfig
	SubStatusCache SubStatusCacheConfig
	Consultation   ConsultationConfig
	ExternalLinks  ExternalLinksConfig
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
	Secret     string
	Expiration time.Duration
	Issuer     string
	Audience   []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SubStatusCacheConfig governs caching of computed sub-statuses.
type SubStatusCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// ConsultationConfig holds public register defaults.
type ConsultationConfig struct {
	PeriodDays          int
	ExpirySweepInterval time.Duration
}

// Period returns the default consultation register period.
func (c ConsultationConfig) Period() time.Duration {
	return time.Duration(c.PeriodDays) * 24 * time.Hour
}

// ExternalLinksConfig configures consultee access links.
type ExternalLinksConfig struct {
	Secret string
	TTL    time.Duration
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
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
		Audience:   splitAndTrim(v.GetString("JWT_AUDIENCE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.SubStatusCache = SubStatusCacheConfig{
		Enabled: v.GetBool("SUBSTATUS_CACHE_ENABLED"),
		TTL:     parseDuration(v.GetString("SUBSTATUS_CACHE_TTL"), 5*time.Minute),
		Prefix:  v.GetString("SUBSTATUS_CACHE_PREFIX"),
	}

	periodDays := v.GetInt("CONSULTATION_PERIOD_DAYS")
	if periodDays <= 0 {
		periodDays = 30
	}
	cfg.Consultation = ConsultationConfig{
		PeriodDays:          periodDays,
		ExpirySweepInterval: parseDuration(v.GetString("CONSULTATION_EXPIRY_SWEEP_INTERVAL"), time.Hour),
	}

	cfg.ExternalLinks = ExternalLinksConfig{
		Secret: v.GetString("EXTERNAL_LINK_SECRET"),
		TTL:    parseDuration(v.GetString("EXTERNAL_LINK_TTL"), 30*24*time.Hour),
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
	v.SetDefault("DB_NAME", "felling_licences")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SUBSTATUS_CACHE_ENABLED", true)
	v.SetDefault("SUBSTATUS_CACHE_TTL", "5m")
	v.SetDefault("SUBSTATUS_CACHE_PREFIX", "flo")

	v.SetDefault("CONSULTATION_PERIOD_DAYS", 30)
	v.SetDefault("CONSULTATION_EXPIRY_SWEEP_INTERVAL", "1h")
	v.SetDefault("EXTERNAL_LINK_SECRET", "dev_external_link_secret")
	v.SetDefault("EXTERNAL_LINK_TTL", "720h")
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
