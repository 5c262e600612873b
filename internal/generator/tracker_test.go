package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/worksheet-gen/backend/internal/models"
)

func TestTracker(t *testing.T) {
	s := models.DefaultSettings()
	var tr Tracker

	assert.True(t, tr.Observe(DependenciesOf(s)))
	assert.Len(t, tr.Changed(), 4)

	s.Title = "Something else"
	s.IncludeCodeBreaker = !s.IncludeCodeBreaker
	assert.False(t, tr.Observe(DependenciesOf(s)))
	assert.Empty(t, tr.Changed())

	s.SecretMessage = "NEW MESSAGE"
	s.Operations.Division = !s.Operations.Division
	assert.True(t, tr.Observe(DependenciesOf(s)))
	assert.Equal(t, []string{"secret_message", "operations"}, tr.Changed())

	tr.Reset()
	assert.True(t, tr.Observe(DependenciesOf(s)))
}
