package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bharatbiz/bizagent/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 30*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Shop.VoiceEnabled)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")

	path := writeConfig(t, `
server:
  port: 9090
database:
  driver: sqlite
  path: /tmp/shop.db
openai:
  model: gpt-4o
shop:
  greeting: "Ram Ram!"
  voice_enabled: false
tax:
  rates:
    general_goods: 0.12
catalog:
  products:
    - id: "p1"
      name: "Masala Chai"
      price: 60
      unit: "pack"
      category: "food_items"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/shop.db", cfg.Database.Path)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "Ram Ram!", cfg.Shop.Greeting)
	assert.False(t, cfg.Shop.VoiceEnabled)

	cat, err := cfg.BuildCatalog()
	require.NoError(t, err)
	products := cat.List()
	require.Len(t, products, 1)
	assert.Equal(t, "Masala Chai", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimal.NewFromInt(60)))

	assert.True(t, cat.Taxes().Rate(catalog.CategoryGeneral).Equal(decimal.RequireFromString("0.12")))
	assert.True(t, cat.Taxes().Rate(catalog.CategoryFood).Equal(decimal.RequireFromString("0.05")))
}

func TestLoad_EnvOverridesDatabasePath(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("BIZAGENT_DB_DRIVER", "sqlite")
	t.Setenv("BIZAGENT_DB_PATH", "/var/lib/bizagent.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/var/lib/bizagent.db", cfg.Database.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Driver: DriverMemory},
		OpenAI:   OpenAIConfig{APIKey: "sk", Model: "gpt-4o-mini"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing api key", func(c *Config) { c.OpenAI.APIKey = "" }, "openai.api_key"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "postgres" }, "database.driver"},
		{"sqlite without path", func(c *Config) { c.Database.Driver = DriverSQLite }, "database.path"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"tax rate too high", func(c *Config) { c.Tax.Rates = map[string]string{"luxury_items": "1.5"} }, "tax.rates"},
		{"unknown tax category", func(c *Config) { c.Tax.Rates = map[string]string{"fuel": "0.1"} }, "tax.rates"},
		{"unparsable tax rate", func(c *Config) { c.Tax.Rates = map[string]string{"food_items": "five"} }, "tax.rates.food_items"},
		{"bad product category", func(c *Config) {
			c.Catalog.Products = []ProductConfig{{ID: "1", Name: "X", Price: "1", Category: "grain"}}
		}, "catalog.products"},
		{"bad product price", func(c *Config) {
			c.Catalog.Products = []ProductConfig{{ID: "1", Name: "X", Price: "free", Category: "food_items"}}
		}, "catalog.products[0].price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToContainerConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Shop = ShopConfig{Greeting: "Hello", VoiceEnabled: true}

	cc, err := cfg.ToContainerConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cc.Database.Driver)
	assert.Equal(t, "sk", cc.OpenAI.APIKey)
	assert.Equal(t, "Hello", cc.Shop.Greeting)
	require.NotNil(t, cc.Catalog)
	assert.Len(t, cc.Catalog.List(), len(catalog.DefaultProducts()))
}
