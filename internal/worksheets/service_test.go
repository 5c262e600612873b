package worksheets

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worksheet-gen/backend/internal/generator"
	"github.com/worksheet-gen/backend/internal/models"
)

func fixedSeeds(seed int64) SeedFunc {
	return func() int64 { return seed }
}

func newTestService(t *testing.T) (*Service, *Metrics) {
	t.Helper()
	m := NewMetrics(prometheus.NewRegistry())
	return NewService(m, WithSeeds(fixedSeeds(42))), m
}

func catSettings() models.Settings {
	s := models.DefaultSettings()
	s.SecretMessage = "CAT"
	return s
}

func TestService_Generate(t *testing.T) {
	svc, m := newTestService(t)
	seed := int64(9)

	resp, err := svc.Generate(context.Background(), catSettings(), &seed)
	require.NoError(t, err)

	want := generator.Generate(catSettings().GenerationConfig(), generator.NewRandom(seed))
	assert.Equal(t, want.Problems, resp.Problems)
	assert.Equal(t, want.Cipher, resp.Cipher)
	assert.Equal(t, seed, resp.Seed)
	assert.Empty(t, resp.Warnings)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generations.WithLabelValues("easy", "generate")))
}

func TestService_GenerateDrawsSeed(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Generate(context.Background(), catSettings(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.Seed)
}

func TestService_GenerateReportsConditions(t *testing.T) {
	svc, m := newTestService(t)
	s := models.DefaultSettings()
	s.Operations = models.OperationSet{}

	resp, err := svc.Generate(context.Background(), s, nil)
	require.NoError(t, err)
	assert.True(t, resp.Report.OperationsCoerced)
	assert.True(t, resp.Report.InfeasibleCipher())
	assert.Len(t, resp.Warnings, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conditions.WithLabelValues("easy", "operations_coerced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conditions.WithLabelValues("easy", "infeasible_cipher")))
}

func TestService_UnknownDifficulty(t *testing.T) {
	svc, _ := newTestService(t)
	s := catSettings()
	s.Difficulty = "impossible"

	_, err := svc.Generate(context.Background(), s, nil)
	assert.ErrorIs(t, err, ErrUnknownDifficulty)
}

func TestService_GenerateVariants(t *testing.T) {
	svc, _ := newTestService(t)
	seed := int64(100)

	resp, err := svc.GenerateVariants(context.Background(), catSettings(), 6, &seed)
	require.NoError(t, err)
	require.Len(t, resp.Variants, 6)

	for i, v := range resp.Variants {
		assert.Equal(t, seed+int64(i), v.Seed)
		want := generator.Generate(catSettings().GenerationConfig(), generator.NewRandom(seed+int64(i)))
		assert.Equal(t, want.Problems, v.Problems)
	}

	_, err = svc.GenerateVariants(context.Background(), catSettings(), 0, nil)
	assert.Error(t, err)
}

func TestService_Tiers(t *testing.T) {
	svc, _ := newTestService(t)
	tiers := svc.Tiers()

	require.GreaterOrEqual(t, len(tiers), 3)
	assert.Equal(t, models.DifficultyEasy, tiers[0].ID)
	assert.Equal(t, 9, tiers[0].CipherCapacity)
	assert.Equal(t, models.RangeView{Ceiling: 144, MaxOperand: 12}, tiers[2].Ranges[models.OpMul])
}

func TestDraft_RegeneratesOnlyOnDependencyChange(t *testing.T) {
	svc, _ := newTestService(t)
	store := NewDraftStore(svc, time.Hour)

	d, err := store.Create(nil)
	require.NoError(t, err)
	snap := d.Snapshot()
	assert.Equal(t, 1, snap.Generation)
	assert.Equal(t, models.DefaultSettings(), snap.Settings)
	assert.Len(t, snap.Problems, 10)

	assert.False(t, d.SetTitle("Spooky Sums"))
	assert.False(t, d.SetIncludeCodeBreaker(false))
	assert.False(t, d.SetPrefilledWords([]string{"DAY"}))
	assert.False(t, d.SetMaxNumber(20))
	changed, err := d.SetTheme(models.ThemeDinosaur)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, d.Snapshot().Generation)

	assert.True(t, d.SetSecretMessage("GO TEAM"))
	changed, err = d.SetDifficulty(models.DifficultyMedium)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = d.SetProblemCount(12)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = d.SetOperation(models.OpMul, true)
	require.NoError(t, err)
	assert.True(t, changed)

	snap = d.Snapshot()
	assert.Equal(t, 5, snap.Generation)
	assert.Len(t, snap.Problems, 12)
	assert.Equal(t, "Spooky Sums", snap.Settings.Title)

	// Re-sending the same value is not a change.
	assert.False(t, d.SetSecretMessage("GO TEAM"))

	require.NoError(t, d.Regenerate())
	assert.Equal(t, 6, d.Snapshot().Generation)
	assert.True(t, d.Snapshot().Regenerated)
}

func TestDraft_ReportsChangedInputs(t *testing.T) {
	svc, _ := newTestService(t)
	store := NewDraftStore(svc, time.Hour)

	d, err := store.Create(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"secret_message", "difficulty", "operations", "problem_count"}, d.Snapshot().Changed)

	d.SetTitle("Only the title")
	assert.Empty(t, d.Snapshot().Changed)

	msg, difficulty := "DINO ROAR", models.DifficultyHard
	changed, err := d.Apply(models.DraftUpdateRequest{SecretMessage: &msg, Difficulty: &difficulty})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"secret_message", "difficulty"}, d.Snapshot().Changed)

	require.NoError(t, d.Regenerate())
	assert.Empty(t, d.Snapshot().Changed)
}

func TestDraft_LastOperation(t *testing.T) {
	svc, _ := newTestService(t)
	store := NewDraftStore(svc, time.Hour)
	s := catSettings()
	s.Operations = models.OperationSet{Addition: true}

	d, err := store.Create(&s)
	require.NoError(t, err)

	_, err = d.SetOperation(models.OpAdd, false)
	assert.ErrorIs(t, err, ErrLastOperation)
	assert.True(t, d.Snapshot().Settings.Operations.Addition)

	// Swapping in one update is fine: enables go first.
	changed, err := d.Apply(models.DraftUpdateRequest{
		Operations: map[models.Operation]bool{models.OpAdd: false, models.OpDiv: true},
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.OperationSet{Division: true}, d.Snapshot().Settings.Operations)

	_, err = d.Apply(models.DraftUpdateRequest{
		Operations: map[models.Operation]bool{models.OpDiv: false},
	})
	assert.ErrorIs(t, err, ErrLastOperation)
}

func TestDraft_ApplyIsAllOrNothing(t *testing.T) {
	svc, _ := newTestService(t)
	store := NewDraftStore(svc, time.Hour)
	d, err := store.Create(nil)
	require.NoError(t, err)
	before := d.Snapshot()

	title := "Changed"
	bad := models.Difficulty("legendary")
	_, err = d.Apply(models.DraftUpdateRequest{Title: &title, Difficulty: &bad})
	assert.ErrorIs(t, err, ErrUnknownDifficulty)
	assert.Equal(t, before, d.Snapshot())

	_, err = d.Apply(models.DraftUpdateRequest{Operations: map[models.Operation]bool{"pow": true}})
	assert.ErrorIs(t, err, ErrUnknownOp)

	count := 0
	_, err = d.Apply(models.DraftUpdateRequest{NumberOfProblems: &count})
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestDraftStore_Expiry(t *testing.T) {
	svc, _ := newTestService(t)
	store := NewDraftStore(svc, time.Minute)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	a, err := store.Create(nil)
	require.NoError(t, err)
	b, err := store.Create(nil)
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	_, err = store.Get(a.ID)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = store.Get(b.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.Equal(t, 1, store.Len())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.Zero(t, store.Len())

	_, err = store.Update("missing", models.DraftUpdateRequest{})
	assert.ErrorIs(t, err, ErrDraftNotFound)
}
