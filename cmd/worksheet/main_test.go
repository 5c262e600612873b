package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worksheet-gen/backend/internal/models"
)

func TestRun(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-message", "cat", "-count", "4", "-key", "-breaker", "-title", "Pets"}, &out, 7)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "Pets")
	assert.Contains(t, got, "seed 7")
	assert.Contains(t, got, "C A T")
	assert.Contains(t, got, "2 3 4")
	assert.Equal(t, 4, strings.Count(got, "= ____"))
	assert.NotContains(t, got, "! ")
}

func TestRunHidesLettersWithoutBreaker(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-message", "cat", "-count", "3"}, &out, 1))
	assert.Contains(t, out.String(), "_ _ _")
	assert.NotContains(t, out.String(), "Answer")
}

func TestRunWarnings(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-message", "THE QUICK BROWN FOX", "-count", "20"}, &out, 3))
	assert.Contains(t, out.String(), "! difficulty has too few numbers for letters")
	assert.Contains(t, out.String(), "–")
}

func TestRunRejectsBadFlags(t *testing.T) {
	tests := map[string][]string{
		"unknown difficulty": {"-difficulty", "legendary"},
		"unknown operation":  {"-ops", "add,pow"},
		"no operations":      {"-ops", " , "},
		"undefined flag":     {"-nope"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, run(args, &bytes.Buffer{}, 1))
		})
	}
}

func TestParseOperations(t *testing.T) {
	set, err := parseOperations("ADD, div")
	require.NoError(t, err)
	assert.Equal(t, models.OperationSet{Addition: true, Division: true}, set)
}
