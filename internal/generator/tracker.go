package generator

import (
	"slices"

	"github.com/worksheet-gen/backend/internal/models"
)

// Dependencies is the part of a worksheet's settings that a generation pass
// reads. Any other setting (title, theme, display flags) can change without
// invalidating the generated problems.
type Dependencies struct {
	SecretMessage string
	Difficulty    models.Difficulty
	Operations    models.OperationSet
	ProblemCount  int
}

// DependenciesOf projects settings onto the fields generation depends on.
func DependenciesOf(s models.Settings) Dependencies {
	return Dependencies{
		SecretMessage: s.SecretMessage,
		Difficulty:    s.Difficulty,
		Operations:    s.Operations,
		ProblemCount:  s.NumberOfProblems,
	}
}

// Tracker remembers the last dependency snapshot it saw.
type Tracker struct {
	last    Dependencies
	primed  bool
	changes []string
}

// Observe records deps and reports whether they differ from the previous
// snapshot. The first observation always reports a change.
func (t *Tracker) Observe(deps Dependencies) bool {
	changed := !t.primed || deps != t.last
	t.changes = t.diff(deps)
	t.last = deps
	t.primed = true
	return changed
}

// Changed lists the dependency fields that differed at the last Observe.
func (t *Tracker) Changed() []string {
	return slices.Clone(t.changes)
}

// Reset forgets the snapshot so the next Observe reports a change.
func (t *Tracker) Reset() {
	t.primed = false
	t.changes = nil
}

func (t *Tracker) diff(deps Dependencies) []string {
	if !t.primed {
		return []string{"secret_message", "difficulty", "operations", "problem_count"}
	}
	var out []string
	if deps.SecretMessage != t.last.SecretMessage {
		out = append(out, "secret_message")
	}
	if deps.Difficulty != t.last.Difficulty {
		out = append(out, "difficulty")
	}
	if deps.Operations != t.last.Operations {
		out = append(out, "operations")
	}
	if deps.ProblemCount != t.last.ProblemCount {
		out = append(out, "problem_count")
	}
	return out
}
