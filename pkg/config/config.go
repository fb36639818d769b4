package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Blog      BlogConfig
	RateLimit RateLimitConfig
	Worker    WorkerConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	Env            string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxIdleConns int
	MaxOpenConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type AuthConfig struct {
	// EncryptionKey is an age X25519 identity used to seal auth tokens at rest.
	EncryptionKey   string
	// CacheSize bounds the verifier's user cache; 0 turns it off. Servers
	// only cache when Redis is reachable, so revocations can reach them.
	CacheSize       int
	CacheTTLSeconds int
}

type BlogConfig struct {
	VoteThreshold   int
	DefaultPageSize int
	MaxPageSize     int
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
	// TrustProxy keys clients by X-Forwarded-For / X-Real-IP. Enable only
	// behind a proxy that sets them.
	TrustProxy bool
}

type WorkerConfig struct {
	Concurrency   int
	ReconcileCron string
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (a *AuthConfig) CacheTTL() time.Duration {
	return time.Duration(a.CacheTTLSeconds) * time.Second
}

func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 3000)
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("SERVER_ALLOWED_ORIGINS", "")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "blogit")
	v.SetDefault("DATABASE_PASSWORD", "blogit_secret")
	v.SetDefault("DATABASE_NAME", "blogit")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 10)
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 100)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("AUTH_CACHE_SIZE", 0)
	v.SetDefault("AUTH_CACHE_TTL_SECONDS", 60)
	v.SetDefault("BLOG_VOTE_THRESHOLD", 5)
	v.SetDefault("BLOG_DEFAULT_PAGE_SIZE", 5)
	v.SetDefault("BLOG_MAX_PAGE_SIZE", 100)
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("RATE_LIMIT_TRUST_PROXY", false)
	v.SetDefault("WORKER_CONCURRENCY", 5)
	v.SetDefault("WORKER_RECONCILE_CRON", "*/30 * * * *")

	// Load from .env file if present
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("SERVER_HOST"),
			Port:           v.GetInt("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(v.GetString("SERVER_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("DATABASE_HOST"),
			Port:         v.GetInt("DATABASE_PORT"),
			User:         v.GetString("DATABASE_USER"),
			Password:     v.GetString("DATABASE_PASSWORD"),
			Name:         v.GetString("DATABASE_NAME"),
			SSLMode:      v.GetString("DATABASE_SSLMODE"),
			MaxIdleConns: v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			MaxOpenConns: v.GetInt("DATABASE_MAX_OPEN_CONNS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		Auth: AuthConfig{
			EncryptionKey:   v.GetString("ENCRYPTION_KEY"),
			CacheSize:       v.GetInt("AUTH_CACHE_SIZE"),
			CacheTTLSeconds: v.GetInt("AUTH_CACHE_TTL_SECONDS"),
		},
		Blog: BlogConfig{
			VoteThreshold:   v.GetInt("BLOG_VOTE_THRESHOLD"),
			DefaultPageSize: v.GetInt("BLOG_DEFAULT_PAGE_SIZE"),
			MaxPageSize:     v.GetInt("BLOG_MAX_PAGE_SIZE"),
		},
		RateLimit: RateLimitConfig{
			Requests:      v.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
			TrustProxy:    v.GetBool("RATE_LIMIT_TRUST_PROXY"),
		},
		Worker: WorkerConfig{
			Concurrency:   v.GetInt("WORKER_CONCURRENCY"),
			ReconcileCron: v.GetString("WORKER_RECONCILE_CRON"),
		},
	}

	return cfg, nil
}

// RequireEncryptionKey fails outside development when ENCRYPTION_KEY is
// unset. Sealed tokens can only be opened with the key that sealed them, so
// every process must share one.
func (c *Config) RequireEncryptionKey() error {
	if c.Auth.EncryptionKey == "" && !c.Server.IsDevelopment() {
		return errors.New("ENCRYPTION_KEY is required when SERVER_ENV is not development")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
