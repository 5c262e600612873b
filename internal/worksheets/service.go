// Package worksheets serves worksheet generation: one-off passes, parallel
// variants, and authoring drafts that regenerate as their settings change.
package worksheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/worksheet-gen/backend/internal/generator"
	"github.com/worksheet-gen/backend/internal/models"
)

const maxParallelVariants = 4

var ErrUnknownDifficulty = errors.New("unknown difficulty")

// SeedFunc supplies seeds for passes that were not given one.
type SeedFunc func() int64

type Service struct {
	gen     *generator.Generator
	metrics *Metrics
	tracer  trace.Tracer
	seeds   SeedFunc
}

type Option func(*Service)

// WithSeeds replaces the default clock-based seed source.
func WithSeeds(f SeedFunc) Option {
	return func(s *Service) { s.seeds = f }
}

func NewService(metrics *Metrics, opts ...Option) *Service {
	s := &Service{
		gen:     generator.New(),
		metrics: metrics,
		tracer:  otel.Tracer("worksheets"),
		seeds:   clockSeeds(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func clockSeeds() SeedFunc {
	var mu sync.Mutex
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return func() int64 {
		mu.Lock()
		defer mu.Unlock()
		return src.Int63()
	}
}

// Generate runs one pass over settings. A nil seed draws a fresh one; the
// seed used is returned so the worksheet can be reproduced.
func (s *Service) Generate(ctx context.Context, settings models.Settings, seed *int64) (*models.GenerateResponse, error) {
	return s.generate(ctx, settings, s.seedOr(seed), "generate")
}

// GenerateVariants runs count passes over the same settings in parallel.
// Variant i uses seed base+i, so a fixed base seed reproduces the whole set.
func (s *Service) GenerateVariants(ctx context.Context, settings models.Settings, count int, seed *int64) (*models.VariantsResponse, error) {
	if count < 1 {
		return nil, fmt.Errorf("variant count must be positive, got %d", count)
	}
	base := s.seedOr(seed)

	variants := make([]models.GenerateResponse, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelVariants)
	for i := 0; i < count; i++ {
		g.Go(func() error {
			resp, err := s.generate(gctx, settings, base+int64(i), "variant")
			if err != nil {
				return fmt.Errorf("variant %d: %w", i+1, err)
			}
			variants[i] = *resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &models.VariantsResponse{Variants: variants}, nil
}

// Tiers describes every registered difficulty tier.
func (s *Service) Tiers() []models.TierResponse {
	tiers := generator.Tiers()
	out := make([]models.TierResponse, 0, len(tiers))
	for _, t := range tiers {
		ranges := make(map[models.Operation]models.RangeView, len(models.AllOperations))
		for _, op := range models.AllOperations {
			r := t.Range(op)
			ranges[op] = models.RangeView{Ceiling: r.Ceiling, MaxOperand: r.MaxOperand}
		}
		out = append(out, models.TierResponse{ID: t.ID, Ranges: ranges, CipherCapacity: t.CipherCapacity()})
	}
	return out
}

func (s *Service) seedOr(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return s.seeds()
}

func (s *Service) generate(ctx context.Context, settings models.Settings, seed int64, origin string) (*models.GenerateResponse, error) {
	set, err := s.run(ctx, settings, seed, origin)
	if err != nil {
		return nil, err
	}
	return &models.GenerateResponse{
		Problems: set.Problems,
		Cipher:   set.Cipher,
		Warnings: set.Report.Warnings(),
		Report:   set.Report,
		Seed:     seed,
	}, nil
}

// run is the single path every generation pass takes, drafts included.
func (s *Service) run(ctx context.Context, settings models.Settings, seed int64, origin string) (models.ProblemSet, error) {
	_, span := s.tracer.Start(ctx, "worksheets.Generate",
		trace.WithAttributes(
			attribute.String("worksheet.difficulty", string(settings.Difficulty)),
			attribute.Int("worksheet.problem_count", settings.NumberOfProblems),
			attribute.Int64("worksheet.seed", seed),
			attribute.String("worksheet.origin", origin),
		),
	)
	defer span.End()

	tier, ok := generator.LookupTier(settings.Difficulty)
	if !ok {
		err := fmt.Errorf("%q: %w", settings.Difficulty, ErrUnknownDifficulty)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.ProblemSet{}, err
	}

	start := time.Now()
	set := s.gen.Generate(settings.GenerationConfig(), generator.NewRandom(seed))
	took := time.Since(start)

	if err := generator.VerifySet(set, tier); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("generated worksheet failed verification", "component", "worksheets", "seed", seed, "error", err)
		return models.ProblemSet{}, fmt.Errorf("verify worksheet: %w", err)
	}

	s.metrics.observe(tier.ID, origin, set.Report, took)
	span.SetAttributes(
		attribute.Int("worksheet.produced", set.Report.Produced),
		attribute.Int("worksheet.cipher_letters", len(set.Cipher.Letters)),
		attribute.Bool("worksheet.shortfall", set.Report.Shortfall()),
	)
	if warnings := set.Report.Warnings(); len(warnings) > 0 {
		slog.Debug("generation reported conditions", "component", "worksheets", "difficulty", tier.ID, "warnings", warnings)
	}
	return set, nil
}
