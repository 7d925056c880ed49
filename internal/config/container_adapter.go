package config

import (
	"github.com/bharatbiz/bizagent/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// The catalog must already have passed Validate.
func (c *Config) ToContainerConfig() (*container.Config, error) {
	cat, err := c.BuildCatalog()
	if err != nil {
		return nil, err
	}

	return &container.Config{
		Database: container.DatabaseConfig{
			Driver:          c.Database.Driver,
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		OpenAI: container.OpenAIConfig{
			APIKey:      c.OpenAI.APIKey,
			Model:       c.OpenAI.Model,
			BaseURL:     c.OpenAI.BaseURL,
			Timeout:     c.OpenAI.Timeout,
			PromptsPath: c.OpenAI.PromptsPath,
		},
		Shop: container.ShopConfig{
			Greeting:     c.Shop.Greeting,
			VoiceEnabled: c.Shop.VoiceEnabled,
		},
		Catalog: cat,
	}, nil
}
