// Package config provides configuration management for agentchat.
// Settings are loaded with the following priority (highest to lowest):
// environment variables > local .env > config file > built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"agentchat/internal/logger"
)

// Defaults applied when neither the environment nor a config file provides a value.
const (
	DefaultServerURL = "http://localhost:8000"
	DefaultTimeout   = 30 * time.Second
	DefaultPageSize  = 20
	DefaultCredsFile = "credentials"
	defaultConfigDir = ".agentchat"
	envPrefix        = "AGENTCHAT"
)

// Config holds the resolved client configuration.
type Config struct {
	ServerURL       string        // Base URL of the agent backend
	RequestTimeout  time.Duration // Timeout for CRUD requests (streams are exempt)
	PageSize        int           // Session list page size
	CredentialsFile string        // Path to the persisted bearer token
	LogLevel        string        // Log level override
	LogFile         string        // Log file path, empty for stderr
}

// Load resolves configuration from defaults, the config file, a local .env,
// and environment variables, in ascending priority.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server_url", DefaultServerURL)
	v.SetDefault("request_timeout", DefaultTimeout.String())
	v.SetDefault("page_size", DefaultPageSize)
	v.SetDefault("credentials_file", "")
	v.SetDefault("log_level", "")
	v.SetDefault("log_file", "")

	// Config file: ~/.agentchat/config.yaml if present
	configDir, err := ConfigDir()
	if err == nil {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			logger.Debug("Config file loaded", "path", v.ConfigFileUsed())
		}
	}

	// Local .env overrides the config file but not real environment variables
	if err := godotenv.Load(); err == nil {
		logger.Debug("Local .env loaded")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	timeout, err := time.ParseDuration(v.GetString("request_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid request_timeout: %w", err)
	}

	pageSize := v.GetInt("page_size")
	if pageSize < 1 {
		return nil, fmt.Errorf("page_size must be positive, got %d", pageSize)
	}

	credsFile := v.GetString("credentials_file")
	if credsFile == "" {
		if configDir != "" {
			credsFile = filepath.Join(configDir, DefaultCredsFile)
		}
	}

	return &Config{
		ServerURL:       v.GetString("server_url"),
		RequestTimeout:  timeout,
		PageSize:        pageSize,
		CredentialsFile: credsFile,
		LogLevel:        v.GetString("log_level"),
		LogFile:         v.GetString("log_file"),
	}, nil
}

// ConfigDir returns the agentchat configuration directory under the user's
// home directory. The directory is not created by this call.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, defaultConfigDir), nil
}
