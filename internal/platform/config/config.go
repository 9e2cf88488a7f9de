// Package config はプロセス起動時に環境変数からアプリケーション設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrConfiguration は必須設定の欠落や不正値など、起動時の設定エラーを表します。
var ErrConfiguration = errors.New("configuration error")

// Backend はDATABASE_URLのスキームから判別されるストアの種類です。
type Backend string

const (
	BackendMongo    Backend = "mongo"
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

const (
	defaultPort       = "3060"
	defaultDBName     = "secondChance"
	defaultImageDir   = "public/images"
	defaultBcryptCost = 10
	defaultCacheTTL   = 5 * time.Minute
)

// Config はサーバー全体の設定値を保持します。
type Config struct {
	Port string

	DatabaseURL   string
	Backend       Backend
	DBName        string
	RunMigrations bool

	JWTSecret     string
	JWTExpiration time.Duration
	BcryptCost    int

	RedisHost     string
	RedisPort     string
	RedisPassword string
	CacheTTL      time.Duration

	ImageDir    string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	CORSAllowedOrigins []string
	LogLevel           string
	LogFormat          string
}

// RedisEnabled はRedisの接続先が設定されているかを返します。
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// S3Enabled は画像保存先としてS3が設定されているかを返します。
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

// Load は環境変数から設定を読み込みます。
// JWT_SECRETとDATABASE_URL（またはMONGO_URL）は必須で、欠落時はErrConfigurationをラップしたエラーを返します。
func Load() (*Config, error) {
	cfg := &Config{
		Port:          envString("PORT", defaultPort),
		DatabaseURL:   envString("DATABASE_URL", envString("MONGO_URL", "")),
		DBName:        envString("DB_NAME", defaultDBName),
		RunMigrations: envBool("RUN_MIGRATIONS", true),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisHost:     envString("REDIS_HOST", ""),
		RedisPort:     envString("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		ImageDir:      envString("IMAGE_DIR", defaultImageDir),
		S3Bucket:      envString("S3_BUCKET", ""),
		S3Region:      envString("S3_REGION", "us-east-1"),
		S3Endpoint:    envString("S3_ENDPOINT", ""),
		S3AccessKey:   envString("S3_ACCESS_KEY", ""),
		S3SecretKey:   envString("S3_SECRET_KEY", ""),
		LogLevel:      envString("LOG_LEVEL", "info"),
		LogFormat:     envString("LOG_FORMAT", "json"),
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, missing("JWT_SECRET")
	}
	if cfg.DatabaseURL == "" {
		return nil, missing("DATABASE_URL")
	}

	backend, err := ParseBackend(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	cfg.Backend = backend

	if cfg.JWTExpiration, err = envDuration("JWT_EXPIRATION", 0); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = envDuration("CACHE_TTL", defaultCacheTTL); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = envInt("BCRYPT_COST", defaultBcryptCost); err != nil {
		return nil, err
	}

	if origins := envString("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	return cfg, nil
}

// ParseBackend は接続文字列のスキームからストアの種類を判別します。
func ParseBackend(url string) (Backend, error) {
	switch {
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return BackendMongo, nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return BackendPostgres, nil
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"):
		return BackendSQLite, nil
	}
	return "", fmt.Errorf("%w: unsupported DATABASE_URL scheme", ErrConfiguration)
}

func missing(key string) error {
	return fmt.Errorf("%w: %s is required", ErrConfiguration, key)
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrConfiguration, key)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative duration", ErrConfiguration, key)
	}
	return d, nil
}
