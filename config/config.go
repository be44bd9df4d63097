// Package config loads notes2blog settings from the environment.
//
// Settings are read with Viper. Every key maps to an upper-case environment
// variable of the same name (upload_dir -> UPLOAD_DIR). An optional dotenv file
// is read first; real environment variables override it.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting.
type Config struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	UploadDir string `mapstructure:"upload_dir"`
	OutputDir string `mapstructure:"output_dir"`

	LLM LLMConfig `mapstructure:",squash"`

	// UseVision selects the hosted vision transcriber; otherwise tesseract runs locally.
	UseVision          bool   `mapstructure:"use_openai_vision"`
	TesseractLanguages string `mapstructure:"tesseract_languages"`

	RequireTitle    bool `mapstructure:"require_h1"`
	RequireSections bool `mapstructure:"require_sections"`

	ComponentRulesFile string `mapstructure:"component_rules_file"`
	MaxRetries         int    `mapstructure:"max_retries"`

	MaxImageSize int `mapstructure:"max_image_size"`
	ImageQuality int `mapstructure:"image_quality"`

	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LLMConfig describes the chat completion backend shared by every producer.
type LLMConfig struct {
	// Provider is openai, deepseek or mock. Empty picks openai when a key is set, mock otherwise.
	Provider    string  `mapstructure:"llm_provider"`
	APIKey      string  `mapstructure:"openai_api_key"`
	BaseURL     string  `mapstructure:"openai_base_url"`
	TextModel   string  `mapstructure:"openai_text_model"`
	VisionModel string  `mapstructure:"openai_vision_model"`
	Temperature float64 `mapstructure:"lm_temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

var defaults = map[string]interface{}{
	"host":                 "0.0.0.0",
	"port":                 8000,
	"upload_dir":           "./uploads",
	"output_dir":           "./outputs",
	"llm_provider":         "",
	"openai_api_key":       "",
	"openai_base_url":      "",
	"openai_text_model":    "gpt-4o-mini",
	"openai_vision_model":  "gpt-4o-mini",
	"lm_temperature":       0.1,
	"max_tokens":           2000,
	"use_openai_vision":    true,
	"tesseract_languages":  "eng",
	"require_h1":           true,
	"require_sections":     true,
	"component_rules_file": "",
	"max_retries":          3,
	"max_image_size":       1024,
	"image_quality":        85,
	"request_timeout":      "5m",
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	cfg, err := decode(newViper(false))
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads envFile (if it exists) and the process environment.
// A missing envFile is not an error; an explicitly named but unreadable one is.
func Load(envFile string) (Config, error) {
	v := newViper(true)
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("stat %s: %w", envFile, err)
		}
	}
	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func newViper(env bool) *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	if env {
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("port %d out of range", c.Port)
	case c.UploadDir == "" || c.OutputDir == "":
		return errors.New("upload_dir and output_dir are required")
	case c.MaxImageSize <= 0:
		return fmt.Errorf("max_image_size must be positive, got %d", c.MaxImageSize)
	case c.ImageQuality < 1 || c.ImageQuality > 100:
		return fmt.Errorf("image_quality must be within 1..100, got %d", c.ImageQuality)
	case c.MaxRetries < 1:
		return fmt.Errorf("max_retries must be at least 1, got %d", c.MaxRetries)
	case c.LLM.MaxTokens < 0:
		return fmt.Errorf("max_tokens must not be negative, got %d", c.LLM.MaxTokens)
	}
	switch c.LLM.Provider {
	case "", "openai", "deepseek", "mock":
	default:
		return fmt.Errorf("llm provider %s not supported", c.LLM.Provider)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Provider resolves the effective LLM provider.
func (c Config) Provider() string {
	if c.LLM.Provider != "" {
		return c.LLM.Provider
	}
	if c.LLM.APIKey == "" {
		return "mock"
	}
	return "openai"
}

// Languages splits the tesseract language list ("eng+deu" or "eng,deu").
func (c Config) Languages() []string {
	fields := strings.FieldsFunc(c.TesseractLanguages, func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})
	return fields
}
