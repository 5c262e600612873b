package generator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worksheet-gen/backend/internal/models"
)

func config(msg string, d models.Difficulty, ops models.OperationSet, count int) models.GenerationConfig {
	return models.GenerationConfig{SecretMessage: msg, Difficulty: d, Operations: ops, ProblemCount: count}
}

// registerTier registers tier unless an earlier run of the test already did.
func registerTier(t *testing.T, tier Tier) {
	t.Helper()
	if err := RegisterTier(tier); err != nil && !errors.Is(err, ErrTierExists) {
		require.NoError(t, err)
	}
}

var (
	addOnly = models.OperationSet{Addition: true}
	allOps  = models.OperationSet{Addition: true, Subtraction: true, Multiplication: true, Division: true}
)

func TestGenerate_CountContract(t *testing.T) {
	set := Generate(config("CAT", models.DifficultyEasy, addOnly, 10), NewRandom(1))

	require.Len(t, set.Problems, 10)
	require.NoError(t, VerifySet(set, easyTier))
	assert.False(t, set.Report.Shortfall())
	assert.Equal(t, 10, set.Report.Produced)

	keyed := 0
	for _, p := range set.Problems[:3] {
		assert.True(t, p.Keyed())
		keyed++
	}
	assert.Equal(t, "C", set.Problems[0].Letter)
	assert.Equal(t, 2, set.Problems[0].Answer)
	assert.Equal(t, 3, keyed)
	for _, p := range set.Problems[3:] {
		assert.False(t, p.Keyed())
	}
}

func TestGenerate_Properties(t *testing.T) {
	messages := []string{
		"CAT",
		"SUPERHEROES SAVE THE DAY",
		"THE QUICK BROWN FOX JUMPS OVER THE LAZY DOG",
		"",
	}
	opSets := []models.OperationSet{
		addOnly,
		{Subtraction: true},
		{Multiplication: true},
		{Division: true},
		{Addition: true, Subtraction: true},
		{Multiplication: true, Division: true},
		allOps,
	}

	for _, tier := range []Tier{easyTier, mediumTier, hardTier} {
		for _, ops := range opSets {
			for _, msg := range messages {
				for seed := int64(0); seed < 5; seed++ {
					name := fmt.Sprintf("%s/%v/%q/%d", tier.ID, ops.List(), msg, seed)
					set := Generate(config(msg, tier.ID, ops, 20), NewRandom(seed))

					require.NoError(t, VerifySet(set, tier), name)
					assert.Len(t, set.Problems, 20, name)
					for _, p := range set.Problems {
						if !p.Keyed() {
							continue
						}
						want, ok := set.Cipher.Lookup(p.Letter)
						require.True(t, ok, name)
						assert.Equal(t, want, p.Answer, name)
					}
				}
			}
		}
	}
}

func TestGenerate_EveryLetterKeyedWhenRoomAllows(t *testing.T) {
	set := Generate(config("SUPERHEROES SAVE THE DAY", models.DifficultyHard, allOps, 30), NewRandom(7))

	keyed := map[string]bool{}
	for _, p := range set.Problems {
		if p.Keyed() {
			keyed[p.Letter] = true
		}
	}
	for _, letter := range set.Cipher.Letters {
		assert.True(t, keyed[letter], "letter %s has no problem", letter)
	}
	assert.Empty(t, set.Report.DroppedLetters)
}

func TestGenerate_RoundRobinExact(t *testing.T) {
	// A constant sequence always picks the low end of every range.
	set := Generate(config("CAT", models.DifficultyEasy, models.OperationSet{Addition: true, Subtraction: true}, 5), NewSequence(0))

	want := []models.Problem{
		{FirstOperand: 1, SecondOperand: 1, Operation: models.OpAdd, Answer: 2, Letter: "C"},
		{FirstOperand: 4, SecondOperand: 1, Operation: models.OpSub, Answer: 3, Letter: "A"},
		{FirstOperand: 1, SecondOperand: 3, Operation: models.OpAdd, Answer: 4, Letter: "T"},
		{FirstOperand: 2, SecondOperand: 1, Operation: models.OpSub, Answer: 1},
		// Every random addition answer is 2, which is taken, so the filler
		// falls back to an unconstrained problem.
		{FirstOperand: 1, SecondOperand: 1, Operation: models.OpAdd, Answer: 2},
	}
	assert.Equal(t, want, set.Problems)
}

func TestGenerate_EmptyOperationsBehaveLikeAddition(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		empty := Generate(config("HELLO WORLD", models.DifficultyMedium, models.OperationSet{}, 15), NewRandom(seed))
		add := Generate(config("HELLO WORLD", models.DifficultyMedium, addOnly, 15), NewRandom(seed))

		assert.Equal(t, add.Problems, empty.Problems)
		assert.Equal(t, add.Cipher, empty.Cipher)
		assert.True(t, empty.Report.OperationsCoerced)
		assert.False(t, add.Report.OperationsCoerced)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := config("SUPERHEROES SAVE THE DAY", models.DifficultyMedium, allOps, 25)

	a := Generate(cfg, NewRandom(99))
	b := Generate(cfg, NewRandom(99))
	assert.Equal(t, a, b)

	c := Generate(cfg, NewSequence(3, 1, 4, 1, 5, 9, 2, 6))
	d := Generate(cfg, NewSequence(3, 1, 4, 1, 5, 9, 2, 6))
	assert.Equal(t, c, d)
}

func TestGenerate_InfeasibleDivisionTerminates(t *testing.T) {
	set := Generate(config("HELLO WORLD", models.DifficultyEasy, models.OperationSet{Division: true}, 50), NewRandom(3))

	require.NoError(t, VerifySet(set, easyTier))
	assert.Len(t, set.Problems, 50)
	for _, p := range set.Problems {
		assert.Equal(t, models.OpDiv, p.Operation)
	}
}

func TestGenerate_TruncatesKeyedOverflow(t *testing.T) {
	set := Generate(config("ABCDEFG", models.DifficultyEasy, addOnly, 3), NewRandom(5))

	require.Len(t, set.Problems, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{set.Problems[0].Letter, set.Problems[1].Letter, set.Problems[2].Letter})
	assert.Equal(t, []string{"D", "E", "F", "G"}, set.Report.DroppedLetters)
	assert.Len(t, set.Cipher.Values, 7)
}

func TestGenerate_InfeasibleCipherIsPartial(t *testing.T) {
	set := Generate(config("ABCDEFGHIJKL", models.DifficultyEasy, addOnly, 12), NewRandom(2))

	require.NoError(t, VerifySet(set, easyTier))
	assert.True(t, set.Report.InfeasibleCipher())
	assert.Equal(t, []string{"J", "K", "L"}, set.Report.UnassignedLetters)
	assert.Len(t, set.Problems, 12)
}

func TestGenerate_UnconstructableLetter(t *testing.T) {
	tiny := Tier{
		ID:          "tiny",
		Addition:    OperationRange{Ceiling: 3, MaxOperand: 2},
		Subtraction: OperationRange{Ceiling: 1, MaxOperand: 1},
		Multiply:    OperationRange{Ceiling: 1, MaxOperand: 1},
		Division:    OperationRange{Ceiling: 2, MaxOperand: 2},
		CipherStart: 1,
		CipherStep:  1,
	}
	registerTier(t, tiny)

	set := Generate(config("AB", "tiny", addOnly, 2), NewRandom(1))

	require.NoError(t, VerifySet(set, tiny))
	assert.Equal(t, []string{"A"}, set.Report.UnconstructableLetters)
	require.Len(t, set.Problems, 2)
	assert.Equal(t, "B", set.Problems[0].Letter)
	assert.Equal(t, 3, set.Problems[1].Answer)
}

func TestGenerate_ShortfallTerminates(t *testing.T) {
	degenerate := Tier{
		ID:          "degenerate",
		Addition:    OperationRange{Ceiling: 1, MaxOperand: 1},
		Subtraction: OperationRange{Ceiling: 1, MaxOperand: 1},
		Multiply:    OperationRange{Ceiling: 1, MaxOperand: 1},
		Division:    OperationRange{Ceiling: 1, MaxOperand: 2},
		CipherStart: 2,
		CipherStep:  1,
	}
	registerTier(t, degenerate)

	set := Generate(config("HI", "degenerate", addOnly, 5), NewRandom(1))

	assert.Empty(t, set.Problems)
	assert.True(t, set.Report.Shortfall())
	assert.Equal(t, []string{"H", "I"}, set.Report.UnassignedLetters)
	assert.NotEmpty(t, set.Report.Warnings())
}

func TestGenerate_UnknownDifficultyRunsAsHard(t *testing.T) {
	set := Generate(config("CAT", "legendary", addOnly, 3), NewRandom(1))

	assert.Equal(t, map[string]int{"C": 5, "A": 11, "T": 17}, set.Cipher.Values)
	require.Len(t, set.Problems, 3)
	require.NoError(t, VerifySet(set, hardTier))
}

func TestGenerate_ObserverSeesEveryState(t *testing.T) {
	var states []State
	g := New(WithObserver(func(s State) { states = append(states, s) }))
	g.Generate(config("CAT", models.DifficultyEasy, addOnly, 4), NewRandom(1))

	assert.Equal(t, []State{StateIdle, StateBuildingCipher, StateSynthesizingKeyed, StateFillingRemainder, StateDone}, states)
	assert.Equal(t, "filling_remainder", StateFillingRemainder.String())
}

func TestConstruct(t *testing.T) {
	rnd := NewSequence(0)
	tests := []struct {
		op     models.Operation
		answer int
		ok     bool
		want   models.Problem
	}{
		{models.OpAdd, 2, true, models.Problem{FirstOperand: 1, SecondOperand: 1, Operation: models.OpAdd, Answer: 2}},
		{models.OpAdd, 1, false, models.Problem{}},
		{models.OpAdd, 11, false, models.Problem{}},
		{models.OpSub, 9, true, models.Problem{FirstOperand: 10, SecondOperand: 1, Operation: models.OpSub, Answer: 9}},
		{models.OpSub, 10, false, models.Problem{}},
		{models.OpMul, 4, true, models.Problem{FirstOperand: 1, SecondOperand: 4, Operation: models.OpMul, Answer: 4}},
		{models.OpMul, 7, false, models.Problem{}},
		{models.OpDiv, 3, true, models.Problem{FirstOperand: 6, SecondOperand: 2, Operation: models.OpDiv, Answer: 3}},
		{models.OpDiv, 11, false, models.Problem{}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%d", tt.op, tt.answer), func(t *testing.T) {
			p, ok := construct(tt.op, tt.answer, easyTier, rnd)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, p)
				assert.NoError(t, Verify(p, easyTier))
			}
		})
	}
}

func TestConstructAny_AlwaysInRange(t *testing.T) {
	rnd := NewRandom(11)
	for _, tier := range []Tier{easyTier, mediumTier, hardTier} {
		for _, op := range models.AllOperations {
			for i := 0; i < 200; i++ {
				p, ok := constructAny(op, tier, rnd)
				require.True(t, ok)
				require.NoError(t, Verify(p, tier))
			}
		}
	}
}

func TestVerify(t *testing.T) {
	assert.ErrorIs(t, Verify(models.Problem{FirstOperand: 2, SecondOperand: 2, Operation: models.OpAdd, Answer: 5}, easyTier), ErrWrongAnswer)
	assert.ErrorIs(t, Verify(models.Problem{FirstOperand: 8, SecondOperand: 1, Operation: models.OpAdd, Answer: 9}, easyTier), ErrOutOfRange)
	assert.ErrorIs(t, Verify(models.Problem{FirstOperand: 7, SecondOperand: 2, Operation: models.OpDiv, Answer: 3}, easyTier), ErrWrongAnswer)
	assert.ErrorIs(t, Verify(models.Problem{FirstOperand: 6, SecondOperand: 6, Operation: models.OpMul, Answer: 36}, easyTier), ErrOutOfRange)
	assert.NoError(t, Verify(models.Problem{FirstOperand: 20, SecondOperand: 5, Operation: models.OpDiv, Answer: 4}, easyTier))

	set := models.ProblemSet{
		Problems: []models.Problem{{FirstOperand: 1, SecondOperand: 2, Operation: models.OpAdd, Answer: 3, Letter: "A"}},
		Cipher:   models.CipherMap{Letters: []string{"A"}, Values: map[string]int{"A": 4}},
	}
	assert.ErrorIs(t, VerifySet(set, easyTier), ErrKeyMismatch)

	set.Cipher.Values = map[string]int{"A": 3, "B": 3}
	assert.ErrorIs(t, VerifySet(set, easyTier), ErrCipherReused)
}
