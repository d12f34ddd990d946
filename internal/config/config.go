package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath       = "config.toml"
	DefaultHTTPAddr         = ":3000"
	DefaultRedisURL         = "redis://localhost:6379"
	DefaultContextTTL       = 604800 // 7 days, seconds
	DefaultPGHost           = "127.0.0.1"
	DefaultPGPort           = 5432
	DefaultPGUser           = "postgres"
	DefaultPGDatabase       = "terrainnova"
	DefaultPGSSLMode        = "disable"
	DefaultQdrantHost       = "127.0.0.1"
	DefaultQdrantPort       = 6334
	DefaultQdrantCollection = "documents"
	DefaultWhatsAppAPIBase  = "https://graph.facebook.com/v18.0"
	DefaultGeminiBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel      = "gemini-1.5-flash"
	DefaultEmbeddingModel   = "embedding-001"
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	Qdrant   QdrantConfig   `toml:"qdrant"`
	WhatsApp WhatsAppConfig `toml:"whatsapp"`
	Gemini   GeminiConfig   `toml:"gemini"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type RedisConfig struct {
	URL               string `toml:"url"`
	ContextTTLSeconds int    `toml:"context_ttl_seconds"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

type QdrantConfig struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	APIKey     string `toml:"api_key"`
	UseTLS     bool   `toml:"use_tls"`
	Collection string `toml:"collection"`
}

type WhatsAppConfig struct {
	AccessToken   string `toml:"access_token"`
	PhoneNumberID string `toml:"phone_number_id"`
	VerifyToken   string `toml:"verify_token"`
	AppSecret     string `toml:"app_secret"`
	APIBaseURL    string `toml:"api_base_url"`
}

type GeminiConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
}

// Load reads the TOML config at path, applying defaults for absent values.
// A missing file is not an error: the defaults plus environment-provided
// secrets are enough to boot in degraded mode.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Redis: RedisConfig{
			URL:               DefaultRedisURL,
			ContextTTLSeconds: DefaultContextTTL,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Qdrant: QdrantConfig{
			Host:       DefaultQdrantHost,
			Port:       DefaultQdrantPort,
			Collection: DefaultQdrantCollection,
		},
		WhatsApp: WhatsAppConfig{
			APIBaseURL: DefaultWhatsAppAPIBase,
		},
		Gemini: GeminiConfig{
			BaseURL:        DefaultGeminiBaseURL,
			Model:          DefaultGeminiModel,
			EmbeddingModel: DefaultEmbeddingModel,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
