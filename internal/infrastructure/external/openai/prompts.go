package openai

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"github.com/bharatbiz/bizagent/internal/domain/catalog"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/classifier.yaml
var defaultPrompts []byte

// PromptConfig holds the classifier prompt and model parameters
type PromptConfig struct {
	Classification struct {
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"max_tokens"`
		System       string  `yaml:"system"`
		UserTemplate string  `yaml:"user_template"`
	} `yaml:"classification"`
}

// promptData is what the prompt templates can reference
type promptData struct {
	Today     string
	Utterance string
	Products  []catalog.Product
}

// DefaultPrompts returns the built-in prompt configuration
func DefaultPrompts() *PromptConfig {
	p, err := parsePrompts(defaultPrompts)
	if err != nil {
		panic(fmt.Sprintf("built-in prompts invalid: %v", err))
	}
	return p
}

// LoadPrompts loads prompt configuration from a YAML file. An empty path
// yields the built-in prompts.
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	if promptsPath == "" {
		return DefaultPrompts(), nil
	}

	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return parsePrompts(data)
}

func parsePrompts(data []byte) (*PromptConfig, error) {
	var prompts PromptConfig
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}
	if prompts.Classification.System == "" {
		return nil, fmt.Errorf("classification.system prompt is empty")
	}
	if prompts.Classification.UserTemplate == "" {
		prompts.Classification.UserTemplate = "{{.Utterance}}"
	}
	return &prompts, nil
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
