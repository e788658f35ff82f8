// Package extraction turns OCR text into a structured claim-form document
// with an OpenAI or Azure OpenAI chat model.
//
// The model is asked for a JSON object matching the form template. Its reply
// is conformed to the template (unknown keys and confidence metadata dropped,
// missing fields filled with "") and then checked against the template's JSON
// schema before it is returned.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"formextract/internal/logger"
	"formextract/pkg/models"
)

const (
	// DefaultModel is used with the OpenAI API when no model is configured.
	DefaultModel = "gpt-4o-mini"

	// DefaultAzureAPIVersion is the Azure OpenAI API version used when none is configured.
	DefaultAzureAPIVersion = "2024-02-15-preview"

	// DefaultMaxRetries is the number of attempts made per document.
	DefaultMaxRetries = 3

	// DefaultMaxTokens bounds the model's reply.
	DefaultMaxTokens = 2000
)

// Extractor turns OCR text into a structured extraction.
type Extractor interface {
	Extract(ctx context.Context, ocrText string) (models.StructuredExtraction, error)
}

// ChatCompleter is the part of *openai.Client the extractor uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures the OpenAI extractor. When AzureEndpoint is set the Azure
// settings are used and APIKey, Model and BaseURL are ignored.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string

	AzureEndpoint   string
	AzureKey        string
	AzureDeployment string
	AzureAPIVersion string

	MaxRetries  int
	Temperature float32
	MaxTokens   int
}

// Azure reports whether the Azure OpenAI settings are in use.
func (c Config) Azure() bool {
	return c.AzureEndpoint != ""
}

// OpenAIExtractor implements Extractor with a chat completion model.
type OpenAIExtractor struct {
	client   ChatCompleter
	config   Config
	template Template
	schema   *jsonschema.Schema
	log      zerolog.Logger
}

// NewOpenAIExtractor creates an extractor with an OpenAI or Azure OpenAI client.
func NewOpenAIExtractor(cfg Config) (*OpenAIExtractor, error) {
	const op = "NewOpenAIExtractor"

	var clientConfig openai.ClientConfig
	switch {
	case cfg.Azure():
		if cfg.AzureKey == "" || cfg.AzureDeployment == "" {
			return nil, WrapExtractionError(op, ErrMissingAPIKey, "AZURE_OPENAI_KEY and AZURE_OPENAI_DEPLOYMENT_NAME are required with AZURE_OPENAI_ENDPOINT")
		}
		clientConfig = openai.DefaultAzureConfig(cfg.AzureKey, cfg.AzureEndpoint)
		if cfg.AzureAPIVersion == "" {
			cfg.AzureAPIVersion = DefaultAzureAPIVersion
		}
		clientConfig.APIVersion = cfg.AzureAPIVersion
		deployment := cfg.AzureDeployment
		clientConfig.AzureModelMapperFunc = func(string) string { return deployment }
		cfg.Model = deployment
	case cfg.APIKey != "":
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	default:
		return nil, WrapExtractionError(op, ErrMissingAPIKey, "")
	}

	return NewOpenAIExtractorWithClient(openai.NewClientWithConfig(clientConfig), cfg)
}

// NewOpenAIExtractorWithClient creates an extractor with an explicit client (for testing).
func NewOpenAIExtractorWithClient(client ChatCompleter, cfg Config) (*OpenAIExtractor, error) {
	const op = "NewOpenAIExtractorWithClient"

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	template := ClaimFormTemplate()
	schema, err := template.Compile()
	if err != nil {
		return nil, WrapExtractionError(op, err, "form schema")
	}

	return &OpenAIExtractor{
		client:   client,
		config:   cfg,
		template: template,
		schema:   schema,
		log:      logger.WithComponent("extraction"),
	}, nil
}

// Extract implements Extractor. Transport errors, non-JSON replies and
// schema violations are retried up to MaxRetries attempts.
func (e *OpenAIExtractor) Extract(ctx context.Context, ocrText string) (models.StructuredExtraction, error) {
	const op = "Extract"

	if strings.TrimSpace(ocrText) == "" {
		return nil, WrapExtractionError(op, ErrEmptyText, "")
	}

	prompt := buildPrompt(e.template, ocrText)

	e.log.Debug().
		Int("prompt_length", len(prompt)).
		Str("model", e.config.Model).
		Float32("temperature", e.config.Temperature).
		Msg("Sending extraction request")

	var lastErr error
	for attempt := 1; attempt <= e.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, WrapExtractionError(op, err, "extraction canceled")
		}

		resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       e.config.Model,
			Temperature: e.config.Temperature,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens: e.config.MaxTokens,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			lastErr = err
			e.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", e.config.MaxRetries).
				Msg("Completion request failed, retrying")
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("%w: no response choices", ErrInvalidResponse)
			continue
		}

		content := resp.Choices[0].Message.Content
		e.log.Debug().
			Str("response", content).
			Msg("Received completion response")

		result, err := e.parse(content)
		if err != nil {
			lastErr = err
			e.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Msg("Unusable extraction response, retrying")
			continue
		}

		e.log.Info().
			Int("fields", len(result)).
			Int("attempt", attempt).
			Msg("Structured extraction succeeded")

		return result, nil
	}

	return nil, WrapExtractionError(op, fmt.Errorf("%w: all %d attempts failed, last error: %w", ErrExtractionFailed, e.config.MaxRetries, lastErr), "")
}

// parse decodes a reply, conforms it to the template and checks the schema.
func (e *OpenAIExtractor) parse(content string) (models.StructuredExtraction, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if raw == nil {
		return nil, ErrInvalidResponse
	}

	if _, ok := raw["confidences"]; ok {
		e.log.Warn().Msg("Removing 'confidences' section from response")
	}

	result := e.template.Conform(raw)
	if err := ValidateAgainstSchema(e.schema, result); err != nil {
		return nil, err
	}
	return result, nil
}

// stripCodeFence removes a surrounding ```json fence some models add despite
// the JSON response format.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
