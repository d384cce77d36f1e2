// Package config loads application settings from a config file, environment
// variables, and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/wudi/pdfocr/ocr"
)

// Config is the full application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	OCR    OCRConfig    `mapstructure:"ocr"`
	Debug  bool         `mapstructure:"debug"`
}

// ServerConfig contains settings for the local viewer server.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// OCRConfig contains recognition settings.
type OCRConfig struct {
	// Engine is the variant selected at startup.
	Engine string `mapstructure:"engine"`
	// Languages are hints passed to every recognition job.
	Languages []string `mapstructure:"languages"`
	// ModelsDir holds the ONNX models for the deep-learning engine.
	ModelsDir string `mapstructure:"models_dir"`
	// QueueDepth bounds the number of pending OCR jobs.
	QueueDepth int `mapstructure:"queue_depth"`
}

// Load reads configuration. Precedence: environment variables (PDFOCR_*),
// then pdfocr.yaml, then defaults. A .env file is loaded first when present.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("pdfocr")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("PDFOCR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	for _, location := range []string{".env", ".env.local"} {
		if _, err := os.Stat(location); err == nil {
			godotenv.Load(location)
			return
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "127.0.0.1:8750")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")

	v.SetDefault("ocr.engine", ocr.DefaultVariant.String())
	v.SetDefault("ocr.languages", []string{"eng"})
	v.SetDefault("ocr.models_dir", "")
	v.SetDefault("ocr.queue_depth", 16)

	v.SetDefault("debug", false)
}

// Validate checks settings that would otherwise fail deep inside the app.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if _, err := ocr.ParseVariant(c.OCR.Engine); err != nil {
		return fmt.Errorf("ocr.engine: %w", err)
	}
	if c.OCR.QueueDepth <= 0 {
		return fmt.Errorf("ocr.queue_depth must be positive")
	}
	if len(c.OCR.Languages) == 0 {
		return fmt.Errorf("ocr.languages must not be empty")
	}
	return nil
}
