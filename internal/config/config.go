package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for AskDesk
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Service     ServiceConfig     `mapstructure:"service"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
	Upload      UploadConfig      `mapstructure:"upload"`
	API         APIConfig         `mapstructure:"api"`
	Log         LogConfig         `mapstructure:"log"`
}

// ServerConfig holds the companion API listener configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// ServiceConfig points at the remote document Q&A service
type ServiceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	TopK    int           `mapstructure:"top_k"`
}

// PreferencesConfig holds the local preference store location
type PreferencesConfig struct {
	Path string `mapstructure:"path"`
}

// UploadConfig filters files before they are handed to the upload workflow
type UploadConfig struct {
	MaxSizeMB         int64    `mapstructure:"max_size_mb"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// APIConfig holds companion API access configuration
type APIConfig struct {
	APIKey       string   `mapstructure:"api_key"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Encoding   string `mapstructure:"encoding"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load loads configuration from .env, file and environment
func Load(configPath string) (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables, e.g. ASKDESK_SERVICE_BASE_URL
	v.SetEnvPrefix("ASKDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8090)

	v.SetDefault("service.base_url", "http://localhost:8000/api/v1")
	v.SetDefault("service.timeout", 2*time.Minute)
	v.SetDefault("service.top_k", 5)

	v.SetDefault("preferences.path", "./data/askdesk.db")

	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("upload.allowed_extensions", []string{".pdf"})

	v.SetDefault("api.api_key", "")
	v.SetDefault("api.allow_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
}

func (c *Config) validate() error {
	if c.Service.BaseURL == "" {
		return fmt.Errorf("service.base_url is required")
	}
	if c.Service.TopK < 1 || c.Service.TopK > 20 {
		return fmt.Errorf("service.top_k must be between 1 and 20, got %d", c.Service.TopK)
	}
	if c.Upload.MaxSizeMB <= 0 {
		return fmt.Errorf("upload.max_size_mb must be positive")
	}
	return nil
}

// Address returns the companion API listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MaxBytes returns the upload size limit in bytes
func (u UploadConfig) MaxBytes() int64 {
	return u.MaxSizeMB << 20
}
