package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config configuração do servidor SoilSense
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Feed     FeedConfig     `yaml:"feed"`
	Chat     ChatConfig     `yaml:"chat"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig parâmetros HTTP; timeouts em segundos
type ServerConfig struct {
	Port           int      `yaml:"port"`
	ReadTimeout    int      `yaml:"read_timeout"`
	WriteTimeout   int      `yaml:"write_timeout"`
	IdleTimeout    int      `yaml:"idle_timeout"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig armazenamento chave-valor: sqlite ou mysql
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// FeedConfig alimentação ao vivo
type FeedConfig struct {
	IntervalMS int  `yaml:"interval_ms"`
	AutoStart  bool `yaml:"auto_start"`
	Seed       bool `yaml:"seed"`
}

// ChatConfig assistente AgroBot
type ChatConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	RatePerMin  int     `yaml:"rate_per_min"`
}

// KafkaConfig publicação de leituras; desabilitada sem brokers
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Enabled indica se há brokers configurados
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// LogConfig nível e formato do log
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default retorna a configuração padrão
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    15,
			WriteTimeout:   15,
			IdleTimeout:    60,
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "soilsense.db",
		},
		Feed: FeedConfig{
			IntervalMS: 5000,
			AutoStart:  true,
			Seed:       true,
		},
		Chat: ChatConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-3.5-turbo",
			MaxTokens:   600,
			Temperature: 0.7,
			TimeoutSec:  30,
			RatePerMin:  20,
		},
		Kafka: KafkaConfig{
			Topic: "soil.readings",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load lê a configuração do arquivo YAML. Arquivo ausente usa os padrões;
// variáveis de ambiente têm precedência sobre o arquivo.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("SOILSENSE_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("SOILSENSE_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Chat.APIKey = v
	}
	if v := os.Getenv("SOILSENSE_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Kafka.Brokers = append(c.Kafka.Brokers, b)
			}
		}
	}
	return nil
}

// Validate verifica os valores obrigatórios
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Feed.IntervalMS <= 0 {
		return fmt.Errorf("invalid feed interval %d", c.Feed.IntervalMS)
	}
	return nil
}

// FeedInterval intervalo da alimentação ao vivo
func (c *Config) FeedInterval() time.Duration {
	return time.Duration(c.Feed.IntervalMS) * time.Millisecond
}
