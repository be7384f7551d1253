package config

import (
	"fmt"
	"os"

	"stock-stream/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Defaults applied to fields left unset in the YAML file.
const (
	DefaultUpdateIntervalSeconds   = 30
	DefaultMaxSymbolsPerConnection = 50
	DefaultBatchSize               = 100
	DefaultBatchDelayMillis        = 200
	DefaultRequestTimeoutSeconds   = 15
	DefaultClientSendBufferSize    = 256
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Stream.UpdateIntervalSeconds == 0 {
		c.Stream.UpdateIntervalSeconds = DefaultUpdateIntervalSeconds
	}
	if c.Stream.MaxSymbolsPerConnection == 0 {
		c.Stream.MaxSymbolsPerConnection = DefaultMaxSymbolsPerConnection
	}
	if c.Stream.ClientSendBufferSize == 0 {
		c.Stream.ClientSendBufferSize = DefaultClientSendBufferSize
	}
	if c.Quotes.BatchSize == 0 {
		c.Quotes.BatchSize = DefaultBatchSize
	}
	if c.Quotes.BatchDelayMillis == 0 {
		c.Quotes.BatchDelayMillis = DefaultBatchDelayMillis
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = DefaultRequestTimeoutSeconds
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Storage configuration
	if c.Storage.DBType == "" {
		return fmt.Errorf("database type cannot be empty")
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("connection string cannot be empty for postgres")
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	// Validate Quotes configuration
	if c.Quotes.Primary.Name == "" {
		return fmt.Errorf("primary quote provider must be configured")
	}
	if c.Quotes.BatchSize <= 0 {
		return fmt.Errorf("quote batch size must be greater than 0")
	}

	// Validate Stream configuration
	if c.Stream.UpdateIntervalSeconds <= 0 {
		return fmt.Errorf("update interval must be greater than 0")
	}
	if c.Stream.MaxSymbolsPerConnection <= 0 {
		return fmt.Errorf("max symbols per connection must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
