package toolbar

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"chat-sidebar/internal/models"
)

// Catalog lists the tools and models offered to users.
type Catalog struct {
	Tools        []models.Tool    `yaml:"tools"`
	Models       []models.AIModel `yaml:"models"`
	DefaultModel string           `yaml:"default_model"`
}

// DefaultCatalog is used when no catalog file is configured.
func DefaultCatalog() Catalog {
	return Catalog{
		Tools: []models.Tool{
			{ID: "web_search", Name: "Web search", Icon: "Globe", Description: "Search the web for fresh results"},
			{ID: "reasoning", Name: "Reasoning", Icon: "Brain", Description: "Think step by step before answering"},
			{ID: "code", Name: "Code tools", Icon: "Wrench", Description: "Run code and inspect files", Enabled: true},
			{ID: "plugins", Name: "Plugins", Icon: "Puzzle", Description: "Call installed plugins"},
		},
		Models: []models.AIModel{
			{ID: "gpt-4o", Name: "GPT-4o", Provider: "openai"},
			{ID: "claude-sonnet", Name: "Claude Sonnet", Provider: "anthropic"},
			{ID: "llama3", Name: "Llama 3", Provider: "ollama"},
		},
		DefaultModel: "gpt-4o",
	}
}

// LoadCatalog reads a YAML catalog from path. An empty path yields DefaultCatalog.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if err := catalog.validate(); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}

func (c Catalog) validate() error {
	seen := map[string]bool{}
	for _, tool := range c.Tools {
		if tool.ID == "" {
			return fmt.Errorf("catalog: tool %q has no id", tool.Name)
		}
		if seen[tool.ID] {
			return fmt.Errorf("catalog: duplicate tool id %q", tool.ID)
		}
		seen[tool.ID] = true
	}

	seen = map[string]bool{}
	for _, model := range c.Models {
		if model.ID == "" {
			return fmt.Errorf("catalog: model %q has no id", model.Name)
		}
		if seen[model.ID] {
			return fmt.Errorf("catalog: duplicate model id %q", model.ID)
		}
		seen[model.ID] = true
	}
	if c.DefaultModel != "" && !seen[c.DefaultModel] {
		return fmt.Errorf("catalog: default model %q is not listed", c.DefaultModel)
	}
	return nil
}
