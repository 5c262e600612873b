package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/worksheet-gen/backend/internal/config"
)

// LLMClient is the interface every suggestion backend satisfies.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// NewClient picks the backend named by cfg.Mode and reports the model label
// used in responses.
func NewClient(cfg config.SuggestConfig) (LLMClient, string) {
	switch cfg.Mode {
	case "cli":
		slog.Info("suggestions using Claude CLI", "path", cfg.CLIPath)
		return NewCLIClient(cfg.CLIPath), "claude-cli"
	case "api":
		slog.Info("suggestions using Anthropic API", "model", cfg.Model)
		return NewAPIClient(cfg.Model), cfg.Model
	default:
		slog.Info("suggestions using mock data")
		return NewMockClient(), "mock"
	}
}

// ── APIClient: Anthropic SDK (Production) ─────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
}

func NewAPIClient(model string) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
	)
	return &APIClient{client: &client, model: model}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   1024,
		Temperature: param.NewOpt(0.9),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			sleepDuration := time.Duration(1<<uint(attempt)) * time.Second
			slog.Warn("retrying Anthropic API call", "in", sleepDuration, "attempt", attempt+1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(sleepDuration):
			}
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		slog.Warn("Anthropic API attempt failed", "attempt", attempt+1, "error", err)
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %w", lastErr)
}

// ── MockClient: Local Development ─────────────────────────

// MockClient answers with a fixed pool of classroom messages, a few of them
// too long for the easy tier.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

var mockMessages = []string{
	"GOOD JOB",
	"YOU ROCK",
	"MATH IS FUN",
	"KEEP GOING",
	"SUPERHEROES SAVE THE DAY",
	"DINOSAURS RULE",
	"CANDY LAND",
	"BUILD A BLOCK",
	"RECESS TIME",
	"THE QUICK BROWN FOX JUMPS OVER THE LAZY DOG",
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	quoted := make([]string, len(mockMessages))
	for i, msg := range mockMessages {
		quoted[i] = fmt.Sprintf("%q", msg)
	}
	return &LLMResponse{
		Content:      fmt.Sprintf(`{"messages":[%s]}`, strings.Join(quoted, ",")),
		PromptTokens: 200,
		OutputTokens: 120,
	}, nil
}
