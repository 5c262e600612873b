package render

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worksheet-gen/backend/internal/generator"
	"github.com/worksheet-gen/backend/internal/models"
)

func settingsFor(msg string, codeBreaker bool, prefilled ...string) models.Settings {
	s := models.DefaultSettings()
	s.SecretMessage = msg
	s.IncludeCodeBreaker = codeBreaker
	s.PrefilledWords = prefilled
	return s
}

func easyCipher(t *testing.T, msg string) models.CipherMap {
	t.Helper()
	tier, ok := generator.LookupTier(models.DifficultyEasy)
	require.True(t, ok)
	return generator.BuildCipher(msg, tier)
}

func TestBuildGrid_PrefilledWords(t *testing.T) {
	s := settingsFor("the cat", false, "the")
	cells := BuildGrid(s, easyCipher(t, s.SecretMessage))

	require.Len(t, cells, 7)
	var shown, labels []string
	for _, c := range cells {
		shown = append(shown, c.Display())
		labels = append(labels, c.Label)
	}
	assert.Equal(t, []string{"T", "H", "E", " ", "_", "_", "T"}, shown)
	assert.Equal(t, []string{"2", "3", "4", "", "5", "6", "2"}, labels)
	assert.True(t, cells[3].Space)
}

func TestBuildGrid_HiddenCellsCarryNoLetter(t *testing.T) {
	s := settingsFor("the cat", false, "the")
	cells := BuildGrid(s, easyCipher(t, s.SecretMessage))

	assert.Empty(t, cells[4].Char)
	assert.Empty(t, cells[5].Char)
	assert.Equal(t, "T", cells[6].Char)

	data, err := json.Marshal(cells[4:6])
	require.NoError(t, err)
	assert.NotContains(t, string(data), "char")
	assert.NotContains(t, string(data), `"C"`)
	assert.NotContains(t, string(data), `"A"`)
}

func TestBuildGrid_PrefilledStartPosition(t *testing.T) {
	// "AT" starts at index 1 of "CATS"; every letter of the word is also
	// revealed wherever it appears.
	s := settingsFor("CATS", false, "at")
	cells := BuildGrid(s, easyCipher(t, s.SecretMessage))

	got := make([]bool, len(cells))
	for i, c := range cells {
		got[i] = c.Revealed
	}
	assert.Equal(t, []bool{false, true, true, false}, got)
}

func TestBuildGrid_CodeBreakerRevealsAll(t *testing.T) {
	s := settingsFor("GO", true)
	cells := BuildGrid(s, easyCipher(t, s.SecretMessage))
	for _, c := range cells {
		assert.True(t, c.Revealed)
		assert.Equal(t, c.Char, c.Display())
	}
}

func TestBuildGrid_UnresolvedPlaceholder(t *testing.T) {
	s := settingsFor("ABCDEFGHIJK", false)
	cells := BuildGrid(s, easyCipher(t, s.SecretMessage))

	assert.Equal(t, "10", cells[8].Label)
	assert.Equal(t, Unresolved, cells[9].Label)
	assert.Equal(t, Unresolved, cells[10].Label)
	assert.Zero(t, cells[10].Number)
}

func TestLines(t *testing.T) {
	cipher := models.CipherMap{Letters: []string{"H", "I"}, Values: map[string]int{"H": 2, "I": 10}}
	cells := BuildGrid(settingsFor("HI", false), cipher)

	letters, numbers := Lines(cells)
	assert.Equal(t, "_ _ ", letters)
	assert.Equal(t, "2 10", numbers)
}
