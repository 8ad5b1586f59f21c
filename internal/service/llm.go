package service

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/pageza/fridge2fork/backend/config"
	"github.com/pageza/fridge2fork/backend/internal/metrics"
)

// Operation labels for provider calls
const (
	OpExtract = "extract_ingredients"
	OpClean   = "clean_ingredients"
	OpRecipes = "generate_recipes"
	OpImage   = "generate_image"
)

// LLMService wraps the OpenAI-compatible client with structured output,
// bounded retries, per-attempt timeouts and metrics.
type LLMService struct {
	client  *openai.Client
	cfg     *config.Config
	retry   RetryConfig
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewLLMService creates the provider client from cfg
func NewLLMService(cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) *LLMService {
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	clientCfg.HTTPClient = &http.Client{}

	return &LLMService{
		client:  openai.NewClientWithConfig(clientCfg),
		cfg:     cfg,
		retry:   DefaultRetryConfig(cfg.ModelMaxRetries),
		logger:  logger.With().Str("component", "llm").Logger(),
		metrics: m,
	}
}

// SetRetryConfig overrides the backoff settings
func (s *LLMService) SetRetryConfig(rc RetryConfig) {
	s.retry = rc
}

// call runs fn with retries. Each attempt gets its own MODEL_TIMEOUT
// deadline derived from ctx.
func (s *LLMService) call(ctx context.Context, op string, fn func(context.Context) error) error {
	start := time.Now()
	attempt := 0

	err := backoff.RetryNotify(func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.ModelTimeout)
		defer cancel()
		return classify(fn(attemptCtx))
	}, s.retry.newBackOff(ctx), func(err error, next time.Duration) {
		s.logger.Warn().
			Err(err).
			Str("operation", op).
			Int("attempt", attempt).
			Dur("retry_in", next).
			Msg("provider call failed, retrying")
	})

	s.metrics.ObserveModelCall(op, start, err)
	if err != nil {
		s.logger.Error().Err(err).Str("operation", op).Int("attempts", attempt).Msg("provider call failed")
		return err
	}
	s.logger.Debug().Str("operation", op).Int("attempts", attempt).Dur("elapsed", time.Since(start)).Msg("provider call succeeded")
	return nil
}

// CompleteStructured asks the chat model for a reply matching the JSON
// schema of out and decodes it into out. Replies that violate the schema
// are not retried.
func (s *LLMService) CompleteStructured(ctx context.Context, op, schemaName string, messages []openai.ChatCompletionMessage, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("structured output target must be a non-nil pointer, got %T", out)
	}
	schema, err := jsonschema.GenerateSchemaForType(rv.Elem().Interface())
	if err != nil {
		return fmt.Errorf("failed to build response schema: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model:    s.cfg.ChatModel,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		},
	}

	return s.call(ctx, op, func(ctx context.Context) error {
		resp, err := s.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to create chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(ErrEmptyModelResponse)
		}
		if err := schema.Unmarshal(resp.Choices[0].Message.Content, out); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrInvalidModelOutput, err))
		}
		return nil
	})
}

// GenerateImage asks the image model for one image and returns its base64 payload
func (s *LLMService) GenerateImage(ctx context.Context, prompt string) (string, error) {
	req := openai.ImageRequest{
		Prompt:  prompt,
		Model:   s.cfg.ImageModel,
		N:       1,
		Size:    s.cfg.ImageSize,
		Quality: s.cfg.ImageQuality,
	}
	// gpt-image models always answer with b64_json and reject the field
	if isDallE(s.cfg.ImageModel) {
		req.ResponseFormat = openai.CreateImageResponseFormatB64JSON
	}

	var payload string
	err := s.call(ctx, OpImage, func(ctx context.Context) error {
		resp, err := s.client.CreateImage(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to create image: %w", err)
		}
		if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
			return backoff.Permanent(ErrEmptyModelResponse)
		}
		payload = resp.Data[0].B64JSON
		return nil
	})
	return payload, err
}

func isDallE(model string) bool {
	return strings.HasPrefix(model, "dall-e")
}
