package shared

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix prefixes every environment variable that overrides the config file.
const EnvPrefix = "EMOTUNE_"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server      ServerConfig      `toml:"server" env:", prefix=SERVER_"`
	Database    DatabaseConfig    `toml:"database" env:", prefix=DATABASE_"`
	Auth        AuthConfig        `toml:"auth" env:", prefix=AUTH_"`
	Credentials CredentialsConfig `toml:"credentials" env:", prefix=CREDENTIALS_"`
	Recommend   RecommendConfig   `toml:"recommend" env:", prefix=RECOMMEND_"`
	Cache       CacheConfig       `toml:"cache" env:", prefix=CACHE_"`
	Mail        MailConfig        `toml:"mail" env:", prefix=MAIL_"`
	Classifier  ClassifierConfig  `toml:"classifier" env:", prefix=CLASSIFIER_"`
	Log         LogConfig         `toml:"log" env:", prefix=LOG_"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host         string        `toml:"host" env:"HOST, overwrite"`
	Port         int           `toml:"port" env:"PORT, overwrite"`
	CORSOrigins  []string      `toml:"cors_origins" env:"CORS_ORIGINS, overwrite"`
	RateLimit    int           `toml:"rate_limit" env:"RATE_LIMIT, overwrite"`           // requests per minute per client
	AuthLimit    int           `toml:"auth_rate_limit" env:"AUTH_RATE_LIMIT, overwrite"` // requests per minute per client on /api/auth
	ReadTimeout  time.Duration `toml:"read_timeout" env:"READ_TIMEOUT, overwrite"`
	WriteTimeout time.Duration `toml:"write_timeout" env:"WRITE_TIMEOUT, overwrite"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"PATH, overwrite"`
	MaxOpenConns int    `toml:"max_open_conns" env:"MAX_OPEN_CONNS, overwrite"`
	MaxIdleConns int    `toml:"max_idle_conns" env:"MAX_IDLE_CONNS, overwrite"`
}

// AuthConfig contains token signing and password reset settings.
type AuthConfig struct {
	JWTSecret    string        `toml:"jwt_secret" env:"JWT_SECRET, overwrite"`
	Issuer       string        `toml:"issuer" env:"ISSUER, overwrite"`
	TokenTTL     time.Duration `toml:"token_ttl" env:"TOKEN_TTL, overwrite"`
	ResetCodeTTL time.Duration `toml:"reset_code_ttl" env:"RESET_CODE_TTL, overwrite"`
	BcryptCost   int           `toml:"bcrypt_cost" env:"BCRYPT_COST, overwrite"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify" env:", prefix=SPOTIFY_"`
}

// SpotifyConfig contains Spotify API credentials for the client-credentials flow.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id" env:"CLIENT_ID, overwrite"`
	ClientSecret string `toml:"client_secret" env:"CLIENT_SECRET, overwrite"`
}

// Configured reports whether both halves of the client credentials are present.
func (s SpotifyConfig) Configured() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// RecommendConfig controls catalog access for recommendations.
type RecommendConfig struct {
	CatalogTimeout time.Duration `toml:"catalog_timeout" env:"CATALOG_TIMEOUT, overwrite"`
	RateLimit      float64       `toml:"rate_limit" env:"RATE_LIMIT, overwrite"` // catalog requests per second
}

// CacheConfig contains Redis cache settings. An empty address disables caching.
type CacheConfig struct {
	RedisAddr string        `toml:"redis_addr" env:"REDIS_ADDR, overwrite"`
	Password  string        `toml:"password" env:"PASSWORD, overwrite"`
	DB        int           `toml:"db" env:"DB, overwrite"`
	Prefix    string        `toml:"prefix" env:"PREFIX, overwrite"`
	TTL       time.Duration `toml:"ttl" env:"TTL, overwrite"`
}

// MailConfig contains SMTP settings for reset code delivery. An empty host logs codes instead.
type MailConfig struct {
	SMTPHost string `toml:"smtp_host" env:"SMTP_HOST, overwrite"`
	SMTPPort int    `toml:"smtp_port" env:"SMTP_PORT, overwrite"`
	SMTPUser string `toml:"smtp_user" env:"SMTP_USER, overwrite"`
	SMTPPass string `toml:"smtp_pass" env:"SMTP_PASS, overwrite"`
	From     string `toml:"from" env:"FROM, overwrite"`
}

// ClassifierConfig points at the external emotion classification model.
type ClassifierConfig struct {
	URL       string        `toml:"url" env:"URL, overwrite"`
	Timeout   time.Duration `toml:"timeout" env:"TIMEOUT, overwrite"`
	RateLimit float64       `toml:"rate_limit" env:"RATE_LIMIT, overwrite"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"LEVEL, overwrite"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadDotEnv loads variables from the given .env files into the process environment.
//
// Missing files are skipped; existing variables are never overwritten.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays EMOTUNE_* environment variables on top of config.
func ApplyEnv(ctx context.Context, config *Config, lookuper envconfig.Lookuper) error {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}

	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   config,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, lookuper),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("%w: auth.jwt_secret is required", ErrMissingConfig)
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("%w: auth.jwt_secret must be at least 16 characters", ErrInvalidConfig)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", ErrMissingConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

// Resolve loads the config file at path when it exists (defaults otherwise) and applies environment overrides.
func Resolve(ctx context.Context, path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if err := ApplyEnv(ctx, config, nil); err != nil {
		return nil, err
	}
	return config, nil
}
