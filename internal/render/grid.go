// Package render lays out the decode grid printed under a worksheet: one
// cell per character of the secret message.
package render

import (
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/worksheet-gen/backend/internal/generator"
	"github.com/worksheet-gen/backend/internal/models"
)

const (
	// Unresolved labels a letter the cipher has no number for.
	Unresolved = "–"
	// Blank is shown in place of a letter the student still has to decode.
	Blank = "_"
)

// Cell is one box of the decode grid. Char is empty until the letter is
// revealed, so a serialized grid never carries the hidden message.
type Cell struct {
	Char     string `json:"char,omitempty"`
	Space    bool   `json:"space"`
	Number   int    `json:"number,omitempty"`
	Label    string `json:"label"`
	Revealed bool   `json:"revealed"`
}

// Display is what goes in the letter box.
func (c Cell) Display() string {
	switch {
	case c.Space:
		return " "
	case c.Revealed:
		return c.Char
	default:
		return Blank
	}
}

// BuildGrid returns one cell per character of the uppercased message.
// Whitespace becomes a gap. A letter is revealed when the code breaker is on
// or a prefilled word covers it: the word starts at that position, or the
// word contains the letter anywhere.
func BuildGrid(settings models.Settings, cipher models.CipherMap) []Cell {
	message := []rune(generator.NormalizeMessage(settings.SecretMessage))
	words := make([][]rune, 0, len(settings.PrefilledWords))
	for _, w := range settings.PrefilledWords {
		if w = generator.NormalizeMessage(strings.TrimSpace(w)); w != "" {
			words = append(words, []rune(w))
		}
	}

	cells := make([]Cell, 0, len(message))
	for i, r := range message {
		if unicode.IsSpace(r) {
			cells = append(cells, Cell{Char: " ", Space: true})
			continue
		}

		letter := string(r)
		cell := Cell{Label: Unresolved}
		if n, ok := cipher.Lookup(letter); ok {
			cell.Number = n
			cell.Label = strconv.Itoa(n)
		}
		if settings.IncludeCodeBreaker || prefilled(message, words, i) {
			cell.Char = letter
			cell.Revealed = true
		}
		cells = append(cells, cell)
	}
	return cells
}

func prefilled(message []rune, words [][]rune, i int) bool {
	for _, w := range words {
		if indexOf(message, w) == i || slices.Contains(w, message[i]) {
			return true
		}
	}
	return false
}

func indexOf(haystack, needle []rune) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// Lines renders the grid as two aligned text rows: letter boxes on top,
// numbers underneath.
func Lines(cells []Cell) (letters, numbers string) {
	var top, bottom strings.Builder
	for i, c := range cells {
		if i > 0 {
			top.WriteByte(' ')
			bottom.WriteByte(' ')
		}
		width := max(len([]rune(c.Label)), 1)
		top.WriteString(pad(c.Display(), width))
		if c.Space {
			bottom.WriteString(strings.Repeat(" ", width))
		} else {
			bottom.WriteString(pad(c.Label, width))
		}
	}
	return top.String(), bottom.String()
}

func pad(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
