package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/domain/catalog"
	"github.com/bharatbiz/bizagent/internal/domain/intent"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrEmptyResponse is returned when the model produced no usable content
var ErrEmptyResponse = errors.New("empty response from OpenAI")

// ProductLister supplies the catalog names mentioned in the prompt
type ProductLister interface {
	List() []catalog.Product
}

// Config configures the classifier
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Classifier implements port.IntentClassifier using the chat completions API
type Classifier struct {
	client   *openai.Client
	model    string
	prompts  *PromptConfig
	products ProductLister
	now      func() time.Time
	timeout  time.Duration
	logger   *zap.Logger
}

var _ port.IntentClassifier = (*Classifier)(nil)

// NewClassifier creates a new OpenAI intent classifier. prompts and products
// may be nil.
func NewClassifier(cfg Config, prompts *PromptConfig, products ProductLister, logger *zap.Logger) *Classifier {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if prompts == nil {
		prompts = DefaultPrompts()
	}

	return &Classifier{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		prompts:  prompts,
		products: products,
		now:      time.Now,
		timeout:  cfg.Timeout,
		logger:   logger,
	}
}

// Classify sends one utterance to the model and decodes its JSON answer.
// The extracted payload is passed through untouched.
func (c *Classifier) Classify(ctx context.Context, utterance string) (*intent.Classification, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	data := promptData{
		Today:     c.now().Format("2006-01-02"),
		Utterance: utterance,
	}
	if c.products != nil {
		data.Products = c.products.List()
	}

	p := c.prompts.Classification
	system, err := renderTemplate(p.System, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render system prompt: %w", err)
	}
	user, err := renderTemplate(p.UserTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render user prompt: %w", err)
	}

	c.logger.Debug("Classifying utterance", zap.Int("length", len(utterance)))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		c.logger.Error("OpenAI API call failed", zap.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, ErrEmptyResponse
	}

	var result intent.Classification
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		// Fallback: try to extract JSON from markdown code blocks
		jsonStr := extractJSON(content)
		if jsonStr == "" || json.Unmarshal([]byte(jsonStr), &result) != nil {
			c.logger.Error("Failed to parse OpenAI response",
				zap.Error(err),
				zap.String("content", content))
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		c.logger.Info("Extracted JSON from response")
	}

	c.logger.Info("Utterance classified",
		zap.String("intent", result.Intent),
		zap.Int("tokens", resp.Usage.TotalTokens))

	return &result, nil
}

// extractJSON returns the first balanced JSON object in content
func extractJSON(content string) string {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		ch := content[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}
