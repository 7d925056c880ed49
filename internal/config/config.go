package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bharatbiz/bizagent/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Record store drivers
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Shop     ShopConfig     `mapstructure:"shop"`
	Tax      TaxConfig      `mapstructure:"tax"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds record store configuration. The memory driver keeps
// records for the life of the process only.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PromptsPath string        `mapstructure:"prompts_path"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// ShopConfig holds conversation defaults
type ShopConfig struct {
	Name         string `mapstructure:"name"`
	Greeting     string `mapstructure:"greeting"`
	VoiceEnabled bool   `mapstructure:"voice_enabled"`
}

// TaxConfig overrides GST rates per category. Rates are decimal strings.
type TaxConfig struct {
	Rates map[string]string `mapstructure:"rates"`
}

// CatalogConfig replaces the starter product list when non-empty
type CatalogConfig struct {
	Products []ProductConfig `mapstructure:"products"`
}

// ProductConfig is one configured product
type ProductConfig struct {
	ID       string `mapstructure:"id"`
	Name     string `mapstructure:"name"`
	Price    string `mapstructure:"price"`
	Unit     string `mapstructure:"unit"`
	Category string `mapstructure:"category"`
}

// Load loads configuration from an optional YAML file and environment
// variables. An empty configPath uses defaults and the environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BIZAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.driver", DriverMemory)
	v.SetDefault("database.path", "data/bizagent.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", 30*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Shop defaults
	v.SetDefault("shop.name", "Bharat Biz-Agent")
	v.SetDefault("shop.voice_enabled", true)
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY", "BIZAGENT_OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "OPENAI_BASE_URL", "BIZAGENT_OPENAI_BASE_URL")
	_ = v.BindEnv("database.path", "BIZAGENT_DB_PATH", "BIZAGENT_DATABASE_PATH")
	_ = v.BindEnv("database.driver", "BIZAGENT_DB_DRIVER", "BIZAGENT_DATABASE_DRIVER")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return errors.New("openai.api_key is required")
	}
	if c.OpenAI.Model == "" {
		return errors.New("openai.model is required")
	}

	switch c.Database.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverMemory, DriverSQLite, c.Database.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	if _, err := c.BuildCatalog(); err != nil {
		return err
	}
	return nil
}

// TaxTable builds the GST table, applying configured overrides on top of the
// default slabs
func (c *Config) TaxTable() (*catalog.TaxTable, error) {
	rates := catalog.DefaultTaxTable().Rates()
	for name, raw := range c.Tax.Rates {
		rate, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("tax.rates.%s: %w", name, err)
		}
		rates[catalog.TaxCategory(name)] = rate
	}

	table, err := catalog.NewTaxTable(rates)
	if err != nil {
		return nil, fmt.Errorf("tax.rates: %w", err)
	}
	return table, nil
}

// BuildCatalog builds the product catalog from configuration, falling back to
// the starter products
func (c *Config) BuildCatalog() (*catalog.Catalog, error) {
	taxes, err := c.TaxTable()
	if err != nil {
		return nil, err
	}

	if len(c.Catalog.Products) == 0 {
		return catalog.New(catalog.DefaultProducts(), taxes)
	}

	products := make([]catalog.Product, 0, len(c.Catalog.Products))
	for i, p := range c.Catalog.Products {
		price, err := decimal.NewFromString(strings.TrimSpace(p.Price))
		if err != nil {
			return nil, fmt.Errorf("catalog.products[%d].price: %w", i, err)
		}
		products = append(products, catalog.Product{
			ID:       p.ID,
			Name:     p.Name,
			Price:    price,
			Unit:     p.Unit,
			Category: catalog.TaxCategory(p.Category),
		})
	}

	cat, err := catalog.New(products, taxes)
	if err != nil {
		return nil, fmt.Errorf("catalog.products: %w", err)
	}
	return cat, nil
}
