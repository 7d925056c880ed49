// Package container provides dependency injection and lifecycle management
// for the shop agent.
package container

import (
	"errors"
	"fmt"
	"time"

	"github.com/bharatbiz/bizagent/internal/domain/catalog"
)

// Record store drivers
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config holds all configuration for the Container.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// OpenAI configuration
	OpenAI OpenAIConfig

	// Shop conversation defaults
	Shop ShopConfig

	// Catalog is the product reference data; nil uses the starter catalog
	Catalog *catalog.Catalog
}

// DatabaseConfig holds record store settings.
type DatabaseConfig struct {
	// Driver is "memory" or "sqlite"
	Driver string

	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	APIKey string

	// Model is the chat model to use (e.g., "gpt-4o-mini")
	Model string

	// BaseURL points at an OpenAI compatible endpoint; empty uses the default
	BaseURL string

	// Timeout for one classification call
	Timeout time.Duration

	// PromptsPath overrides the built-in prompts
	PromptsPath string
}

// ShopConfig holds conversation defaults.
type ShopConfig struct {
	Greeting     string
	VoiceEnabled bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:       DriverMemory,
			Path:         "data/bizagent.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		OpenAI: OpenAIConfig{
			Model:   "gpt-4o-mini",
			Timeout: 30 * time.Second,
		},
		Shop: ShopConfig{
			VoiceEnabled: true,
		},
	}
}

// Validate checks that required configuration values are present. The API
// key is only needed when no classifier is injected.
func (c *Config) Validate(needClassifier bool) error {
	switch c.Database.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if needClassifier {
		if c.OpenAI.APIKey == "" {
			return errors.New("openai.api_key is required")
		}
		if c.OpenAI.Model == "" {
			return errors.New("openai.model is required")
		}
	}

	return nil
}
