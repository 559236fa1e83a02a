package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ErrEmptyCompletion is returned when the provider answers without any
// usable text.
var ErrEmptyCompletion = errors.New("empty completion from provider")

// Message is a minimal chat message.  Role must be one of: "system",
// "user", or "assistant".
type Message struct {
	Role    string
	Content string
}

// Client produces a single completion for a prompt.  Implementations must
// be safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Factory builds a Client bound to an API key.  The analysis service calls
// it per request so a rotated key is picked up without a restart.
type Factory func(apiKey string) Client

// Options configures the OpenAI-compatible endpoint.  BaseURL may point at
// any compatible provider; the default deployment uses Gemini's.
type Options struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// OpenAIClient calls an OpenAI-compatible chat completion API.
type OpenAIClient struct {
	client *openai.Client
	model  string

	tracer   trace.Tracer
	latency  metric.Float64Histogram
	failures metric.Int64Counter
}

// NewOpenAIClient constructs a client for apiKey.  Empty options fall back
// to the public OpenAI endpoint and a small default model.
func NewOpenAIClient(apiKey string, opts Options) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	model := opts.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	meter := otel.Meter("symptrack/llm")
	latency, _ := meter.Float64Histogram(
		"llm.request.duration",
		metric.WithDescription("Provider completion latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	failures, _ := meter.Int64Counter(
		"llm.request.errors",
		metric.WithDescription("Failed provider completions"),
	)

	return &OpenAIClient{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		tracer:   otel.Tracer("symptrack/llm"),
		latency:  latency,
		failures: failures,
	}
}

// NewFactory returns a Factory that builds OpenAIClients with opts.
func NewFactory(opts Options) Factory {
	return func(apiKey string) Client {
		return NewOpenAIClient(apiKey, opts)
	}
}

// Model reports the model name sent with each request.
func (c *OpenAIClient) Model() string { return c.model }

// Complete sends prompt as a single user turn and returns the reply text.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.Chat(ctx, []Message{{Role: openai.ChatMessageRoleUser, Content: prompt}})
}

// Chat sends the message history to the chat completion API and returns the
// assistant's response.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	if c.client == nil {
		return "", errors.New("openai client not initialized")
	}

	ctx, span := c.tracer.Start(ctx, "llm.chat_completion",
		trace.WithAttributes(attribute.String("llm.model", c.model)))
	defer span.End()
	start := time.Now()

	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			// coerce anything unknown to user
			role = openai.ChatMessageRoleUser
		}
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    oaMsgs,
		Temperature: 0.2,
	})
	c.record(ctx, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		span.SetStatus(codes.Error, "empty completion")
		return "", ErrEmptyCompletion
	}
	span.SetAttributes(attribute.Int("llm.usage.total_tokens", resp.Usage.TotalTokens))
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) record(ctx context.Context, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("llm.model", c.model))
	if c.latency != nil {
		c.latency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	}
	if err != nil && c.failures != nil {
		c.failures.Add(ctx, 1, attrs)
	}
}
