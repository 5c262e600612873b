// Package suggest asks a language model for secret messages that fit a
// difficulty tier, so the worksheet's cipher can number every letter.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/worksheet-gen/backend/internal/generator"
	"github.com/worksheet-gen/backend/internal/models"
)

const defaultCount = 5

var (
	ErrRateLimited = errors.New("too many suggestion requests")
	ErrUnknownTier = errors.New("unknown difficulty")
)

type Suggester struct {
	llm     LLMClient
	model   string
	limiter *rate.Limiter
}

// NewSuggester wraps llm with a token bucket allowing perMinute requests a
// minute.
func NewSuggester(llm LLMClient, model string, perMinute int) *Suggester {
	perMinute = max(perMinute, 1)
	return &Suggester{
		llm:     llm,
		model:   model,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

// Suggest returns up to req.Count messages whose distinct letters fit the
// requested tier's cipher capacity.
func (s *Suggester) Suggest(ctx context.Context, req models.SuggestRequest) (*models.SuggestResponse, error) {
	if !s.limiter.Allow() {
		return nil, ErrRateLimited
	}

	tier, ok := generator.LookupTier(req.Difficulty)
	if !ok {
		return nil, fmt.Errorf("%s: %w", req.Difficulty, ErrUnknownTier)
	}
	count := req.Count
	if count <= 0 {
		count = defaultCount
	}
	capacity := tier.CipherCapacity()

	resp, err := s.llm.Generate(ctx, SystemPrompt(), BuildUserPrompt(req.Theme, req.GradeLevel, capacity, count))
	if err != nil {
		return nil, fmt.Errorf("generate suggestions: %w", err)
	}

	candidates, err := ParseResponse(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parse suggestions: %w", err)
	}

	out := &models.SuggestResponse{Model: s.model, Suggestions: []models.Suggestion{}}
	seen := map[string]bool{}
	for _, c := range candidates {
		msg := generator.NormalizeMessage(c)
		distinct := len(generator.DistinctLetters(msg))
		if seen[msg] || distinct == 0 || distinct > capacity {
			out.Rejected++
			continue
		}
		seen[msg] = true
		if len(out.Suggestions) < count {
			out.Suggestions = append(out.Suggestions, models.Suggestion{Message: msg, DistinctCount: distinct})
		}
	}

	slog.Debug("suggestions generated",
		"difficulty", tier.ID,
		"kept", len(out.Suggestions),
		"rejected", out.Rejected,
		"prompt_tokens", resp.PromptTokens,
		"output_tokens", resp.OutputTokens,
	)
	return out, nil
}
