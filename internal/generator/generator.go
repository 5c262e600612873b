// Package generator turns a secret message into arithmetic problems whose
// answers, read through a letter to number cipher, spell the message out.
//
// A generation pass is synchronous and bounded: it builds the cipher, makes
// one keyed problem per cipher letter, then tops the worksheet up with
// filler problems. Conditions such as an undersized tier or an unreachable
// problem count are reported in the ProblemSet's Report, never as errors.
package generator

import "github.com/worksheet-gen/backend/internal/models"

// State is a step of a generation pass.
type State int

const (
	StateIdle State = iota
	StateBuildingCipher
	StateSynthesizingKeyed
	StateFillingRemainder
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuildingCipher:
		return "building_cipher"
	case StateSynthesizingKeyed:
		return "synthesizing_keyed"
	case StateFillingRemainder:
		return "filling_remainder"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Observer is told about every state a pass enters.
type Observer func(State)

// Generator runs generation passes.
type Generator struct {
	observer Observer
}

type Option func(*Generator)

// WithObserver installs a hook that sees each state transition.
func WithObserver(o Observer) Option {
	return func(g *Generator) { g.observer = o }
}

func New(opts ...Option) *Generator {
	g := &Generator{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) enter(s State) {
	if g.observer != nil {
		g.observer(s)
	}
}

// Generate runs one full pass over cfg using rnd for every random choice.
// Identical cfg and identical random sequences give identical results.
func (g *Generator) Generate(cfg models.GenerationConfig, rnd RandomSource) models.ProblemSet {
	g.enter(StateIdle)

	tier := tierFor(cfg.Difficulty)
	target := max(cfg.ProblemCount, 1)

	report := models.Report{Requested: target}
	ops := cfg.Operations.List()
	if len(ops) == 0 {
		ops = []models.Operation{models.OpAdd}
		report.OperationsCoerced = true
	}

	g.enter(StateBuildingCipher)
	cipher := BuildCipher(cfg.SecretMessage, tier)
	report.UnassignedLetters = cipher.Unassigned

	g.enter(StateSynthesizingKeyed)
	cur := &cursor{ops: ops}
	problems, used, unconstructable := synthesizeKeyed(cipher, tier, cur, rnd)
	report.UnconstructableLetters = unconstructable

	g.enter(StateFillingRemainder)
	problems = fillToTarget(problems, used, tier, target, cur, rnd)

	// Keyed problems alone can exceed the target. The first target problems
	// are kept; letters whose problem falls off the end are reported.
	if len(problems) > target {
		for _, p := range problems[target:] {
			if p.Keyed() {
				report.DroppedLetters = append(report.DroppedLetters, p.Letter)
			}
		}
		problems = problems[:target]
	}
	report.Produced = len(problems)

	g.enter(StateDone)
	return models.ProblemSet{Problems: problems, Cipher: cipher, Report: report}
}

// Generate runs a pass with a default Generator.
func Generate(cfg models.GenerationConfig, rnd RandomSource) models.ProblemSet {
	return New().Generate(cfg, rnd)
}
