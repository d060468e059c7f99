package tablecycle

import (
	"fmt"
	"os"
	"regexp"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config represents the tablecycle configuration
type Config struct {
	Dialect   string              `yaml:"dialect"`
	Databases map[string]Database `yaml:"databases"`
	Rotation  RotationConfig      `yaml:"rotation"`
	Compare   CompareConfig       `yaml:"compare"`
	Copy      CopyConfig          `yaml:"copy"`
}

// Database represents database connection configuration
type Database struct {
	Driver     string `yaml:"driver"`
	Connection string `yaml:"connection"`
	Schema     string `yaml:"schema"`
	Database   string `yaml:"database"`
}

// RotationConfig represents retention rotation defaults
type RotationConfig struct {
	DateColumn       string `yaml:"date_column"`
	RetentionDays    int    `yaml:"retention_days"`
	DropTempIfExists bool   `yaml:"drop_temp_if_exists"`
	Verify           bool   `yaml:"verify"`
}

// CompareConfig represents table comparison defaults
type CompareConfig struct {
	PrimaryKey    string `yaml:"primary_key"`
	Output        string `yaml:"output"`
	Format        string `yaml:"format"`
	Bidirectional bool   `yaml:"bidirectional"`
}

// CopyConfig represents cross-server copy defaults
type CopyConfig struct {
	DropIfExists bool `yaml:"drop_if_exists"`
	BatchSize    int  `yaml:"batch_size"`
}

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	// Return default configuration if the file doesn't exist
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML with strict mode to detect unknown fields
	var config Config

	err = yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	if config.Dialect != "" {
		if _, err := ParseDialect(config.Dialect); err != nil {
			return fmt.Errorf("%w: invalid dialect '%s': must be one of postgres, mysql, sqlite", ErrConfigValidation, config.Dialect)
		}
	}

	for name, db := range config.Databases {
		if db.Connection == "" {
			return fmt.Errorf("%w: database '%s': connection is required", ErrConfigValidation, name)
		}
	}

	if config.Rotation.RetentionDays < 0 {
		return fmt.Errorf("%w: rotation.retention_days must be non-negative, got %d", ErrConfigValidation, config.Rotation.RetentionDays)
	}

	if config.Copy.BatchSize < 0 {
		return fmt.Errorf("%w: copy.batch_size must be non-negative, got %d", ErrConfigValidation, config.Copy.BatchSize)
	}

	if config.Compare.Format != "" {
		validFormats := map[string]bool{
			"table":    true,
			"json":     true,
			"csv":      true,
			"yaml":     true,
			"markdown": true,
		}
		if !validFormats[config.Compare.Format] {
			return fmt.Errorf("%w: compare.format '%s' is invalid: must be one of table, json, csv, yaml, markdown", ErrConfigValidation, config.Compare.Format)
		}
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Dialect:   "postgres",
		Databases: make(map[string]Database),
		Rotation: RotationConfig{
			RetentionDays:    30,
			DropTempIfExists: true,
			Verify:           true,
		},
		Compare: CompareConfig{
			Format: "table",
		},
		Copy: CopyConfig{
			BatchSize: 500,
		},
	}
}

// applyDefaults applies default values to missing configuration fields
func applyDefaults(config *Config) {
	if config.Dialect == "" {
		config.Dialect = "postgres"
	}

	if config.Databases == nil {
		config.Databases = make(map[string]Database)
	}

	if config.Compare.Format == "" {
		config.Compare.Format = "table"
	}

	if config.Copy.BatchSize == 0 {
		config.Copy.BatchSize = 500
	}
}

// loadEnvFiles loads .env files if they exist
func loadEnvFiles() error {
	if fileExists(".env") {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

// ExpandEnvVars expands environment variables in the format ${VAR} or $VAR
func ExpandEnvVars(s string) string {
	// Pattern for ${VAR} format
	re1 := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re1.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1] // Remove ${ and }
		return os.Getenv(varName)
	})

	// Pattern for $VAR format (word boundaries)
	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:] // Remove $
		return os.Getenv(varName)
	})

	return s
}

// expandConfigEnvVars recursively expands environment variables in config
func expandConfigEnvVars(config *Config) {
	for name, db := range config.Databases {
		db.Connection = ExpandEnvVars(db.Connection)
		db.Driver = ExpandEnvVars(db.Driver)
		db.Schema = ExpandEnvVars(db.Schema)
		db.Database = ExpandEnvVars(db.Database)
		config.Databases[name] = db
	}

	config.Compare.Output = ExpandEnvVars(config.Compare.Output)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
