package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string

	// Adapter names the preferred LLM provider for filter extraction.
	// Empty means pick the first configured one.
	Adapter string
	// Model overrides the adapter's default model.
	Model string

	// DatabasePath is the DuckDB file holding spaces and usage records.
	DatabasePath string
	// ExportPath is where query results are written as CSV.
	ExportPath string

	LogLevel  string
	ConfigDir string
}

// FileConfig represents the structure of ~/.occusense/config.yaml
type FileConfig struct {
	APIKeys APIKeysConfig `yaml:"api_keys"`
	Adapter string        `yaml:"adapter"`
	Model   string        `yaml:"model"`
	Data    DataConfig    `yaml:"data"`
	Log     LogConfig     `yaml:"log"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	Anthropic string `yaml:"anthropic"`
	OpenAI    string `yaml:"openai"`
	Google    string `yaml:"google"`
}

// DataConfig holds data path configuration from file.
type DataConfig struct {
	Database   string `yaml:"database"`
	ExportPath string `yaml:"export_path"`
}

// LogConfig holds logging configuration from file.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from .env, the config file, and environment
// variables. Environment variables take precedence over file configuration.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	fileConfig := loadFileConfig(filepath.Join(configDir, "config.yaml"))

	cfg := &Config{
		AnthropicAPIKey: getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		OpenAIAPIKey:    getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		GoogleAPIKey:    getEnvOrDefault("GOOGLE_API_KEY", fileConfig.APIKeys.Google),
		Adapter:         getEnvOrDefault("OCCUSENSE_ADAPTER", fileConfig.Adapter),
		Model:           getEnvOrDefault("OCCUSENSE_MODEL", fileConfig.Model),
		DatabasePath:    getEnvOrDefault("OCCUSENSE_DB", fileConfig.Data.Database),
		ExportPath:      getEnvOrDefault("OCCUSENSE_EXPORT_PATH", fileConfig.Data.ExportPath),
		LogLevel:        getEnvOrDefault("OCCUSENSE_LOG_LEVEL", fileConfig.Log.Level),
		ConfigDir:       configDir,
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(configDir, "occusense.duckdb")
	}
	if cfg.ExportPath == "" {
		cfg.ExportPath = filepath.Join(configDir, "exports", "query_result.csv")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// HasAdapter returns true if the API key for the given adapter is configured.
func (c *Config) HasAdapter(name string) bool {
	switch name {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "google":
		return c.GoogleAPIKey != ""
	case "mock":
		return true
	default:
		return false
	}
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg // Return empty config if file doesn't exist
	}

	_ = yaml.Unmarshal(data, cfg) // Ignore parse errors, use defaults
	return cfg
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".occusense")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
