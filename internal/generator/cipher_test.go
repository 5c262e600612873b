package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worksheet-gen/backend/internal/models"
)

func TestBuildCipher_LetterOrder(t *testing.T) {
	tests := []struct {
		name    string
		message string
		tier    Tier
		letters []string
		values  map[string]int
	}{
		{
			name:    "easy starts at 2 step 1",
			message: "CAT",
			tier:    easyTier,
			letters: []string{"C", "A", "T"},
			values:  map[string]int{"C": 2, "A": 3, "T": 4},
		},
		{
			name:    "lowercase and spaces",
			message: "c a  t",
			tier:    easyTier,
			letters: []string{"C", "A", "T"},
			values:  map[string]int{"C": 2, "A": 3, "T": 4},
		},
		{
			name:    "repeated letters keep first appearance",
			message: "TATTOO",
			tier:    easyTier,
			letters: []string{"T", "A", "O"},
			values:  map[string]int{"T": 2, "A": 3, "O": 4},
		},
		{
			name:    "medium starts at 5 step 3",
			message: "abc",
			tier:    mediumTier,
			letters: []string{"A", "B", "C"},
			values:  map[string]int{"A": 5, "B": 8, "C": 11},
		},
		{
			name:    "hard starts at 5 step 6",
			message: "GO!",
			tier:    hardTier,
			letters: []string{"G", "O", "!"},
			values:  map[string]int{"G": 5, "O": 11, "!": 17},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := BuildCipher(tt.message, tt.tier)
			assert.Equal(t, tt.letters, c.Letters)
			assert.Equal(t, tt.values, c.Values)
			assert.True(t, c.Complete())
		})
	}
}

func TestBuildCipher_ProbesAfterCeiling(t *testing.T) {
	// Hard numbers 5, 11, ..., 95 cover sixteen letters; the rest take the
	// smallest free values from 2 upward.
	c := BuildCipher("ABCDEFGHIJKLMNOPQRST", hardTier)

	require.True(t, c.Complete())
	assert.Equal(t, 95, c.Values["P"])
	assert.Equal(t, 2, c.Values["Q"])
	assert.Equal(t, 3, c.Values["R"])
	assert.Equal(t, 4, c.Values["S"])
	assert.Equal(t, 6, c.Values["T"])
}

func TestBuildCipher_Infeasible(t *testing.T) {
	// Easy only has the numbers 2..10.
	c := BuildCipher("ABCDEFGHIJK", easyTier)

	assert.False(t, c.Complete())
	assert.Equal(t, []string{"J", "K"}, c.Unassigned)
	assert.Len(t, c.Values, 9)
	assert.Equal(t, 10, c.Values["I"])
	_, ok := c.Lookup("J")
	assert.False(t, ok)
}

func TestBuildCipher_Injective(t *testing.T) {
	messages := []string{
		"SUPERHEROES SAVE THE DAY",
		"THE QUICK BROWN FOX JUMPS OVER THE LAZY DOG",
		"abcdefghijklmnopqrstuvwxyz0123456789",
		"",
	}
	for _, tier := range []Tier{easyTier, mediumTier, hardTier} {
		for _, msg := range messages {
			c := BuildCipher(msg, tier)
			seen := map[int]string{}
			for letter, v := range c.Values {
				prev, dup := seen[v]
				assert.False(t, dup, "%s: %s and %s share %d", tier.ID, prev, letter, v)
				seen[v] = letter
				assert.GreaterOrEqual(t, v, 2)
				assert.LessOrEqual(t, v, tier.CipherCeiling())
			}
			assert.Equal(t, len(DistinctLetters(msg)), len(c.Letters)+len(c.Unassigned))
		}
	}
}

func TestDistinctLetters(t *testing.T) {
	assert.Equal(t, []string{"H", "I", "!"}, DistinctLetters("hi\thi !"))
	assert.Empty(t, DistinctLetters("   "))
}

func TestTierCapacity(t *testing.T) {
	assert.Equal(t, 9, easyTier.CipherCapacity())
	assert.Equal(t, 19, mediumTier.CipherCapacity())
	assert.Equal(t, 99, hardTier.CipherCapacity())
}

func TestRegisterTier(t *testing.T) {
	err := RegisterTier(Tier{ID: models.DifficultyEasy})
	assert.Error(t, err)

	err = RegisterTier(easyTier)
	assert.ErrorIs(t, err, ErrTierExists)

	bad := easyTier
	bad.ID = "broken"
	bad.Division.MaxOperand = 1
	assert.Error(t, RegisterTier(bad))
}

func TestRegisterTier_NoReplace(t *testing.T) {
	custom := easyTier
	custom.ID = "custom-once"
	registerTier(t, custom)

	wider := custom
	wider.Addition.Ceiling = 500
	assert.ErrorIs(t, RegisterTier(wider), ErrTierExists)

	got, ok := LookupTier("custom-once")
	require.True(t, ok)
	assert.Equal(t, 10, got.Addition.Ceiling)
}

func TestLookupTier_ReturnsCopy(t *testing.T) {
	got, ok := LookupTier(models.DifficultyEasy)
	require.True(t, ok)
	got.Addition.Ceiling = 1000

	again, _ := LookupTier(models.DifficultyEasy)
	assert.Equal(t, 10, again.Addition.Ceiling)
	for _, tier := range Tiers() {
		if tier.ID == models.DifficultyEasy {
			assert.Equal(t, 10, tier.Addition.Ceiling)
		}
	}
}
