package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration options for the edit ledger.
type Config struct {
	// Workspace configuration
	Workspace string `mapstructure:"workspace"` // root of the file tree being edited
	SessionID string `mapstructure:"session_id"`

	// Ledger configuration
	LedgerDir string `mapstructure:"ledger_dir"` // where the session database lives

	// Safety configuration
	ConfirmDestructive bool `mapstructure:"confirm_destructive"` // prompt before cascading reverts

	// Annotation configuration (optional change-set descriptions)
	Annotate bool   `mapstructure:"annotate"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`

	// Logging configuration
	Debug   bool   `mapstructure:"debug"`
	LogFile string `mapstructure:"log_file"`
}

const (
	// Default configuration values
	DefaultModel     = "gpt-4o-mini"
	DefaultSessionID = "default"
	DefaultConfigDir = ".editledger"
)

// Load loads configuration from the config file and environment variables.
func Load() (*Config, error) {
	config := &Config{
		Workspace:          getWorkingDirectory(),
		SessionID:          DefaultSessionID,
		Model:              DefaultModel,
		ConfirmDestructive: true,
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	configDir := getConfigDir()
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("EDITLEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The annotation client reuses the standard OpenAI key when present.
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.APIKey = apiKey
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not an error
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if config.LedgerDir == "" {
		config.LedgerDir = filepath.Join(configDir, "ledger")
	}

	return config, nil
}

// SessionDBPath returns the path of the session database for this config.
func (c *Config) SessionDBPath() string {
	return filepath.Join(c.LedgerDir, "sessions.db")
}

// getConfigDir returns the path to the config directory.
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, DefaultConfigDir)

	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		os.MkdirAll(configDir, 0755)
	}

	return configDir
}

// getWorkingDirectory returns the current working directory.
func getWorkingDirectory() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}
