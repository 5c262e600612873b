package generator

import (
	"errors"
	"fmt"

	"github.com/worksheet-gen/backend/internal/models"
)

var (
	ErrWrongAnswer   = errors.New("answer does not match operands")
	ErrOutOfRange    = errors.New("problem outside tier range")
	ErrCipherReused  = errors.New("cipher value assigned twice")
	ErrKeyMismatch   = errors.New("keyed answer differs from cipher")
	ErrUnknownLetter = errors.New("keyed letter missing from cipher")
)

// Verify checks that p is arithmetically correct and inside tier's range for
// its operation.
func Verify(p models.Problem, tier Tier) error {
	got, ok := p.Operation.Apply(p.FirstOperand, p.SecondOperand)
	if !ok || got != p.Answer {
		return fmt.Errorf("%s: %w", p, ErrWrongAnswer)
	}

	r := tier.Range(p.Operation)
	inRange := p.FirstOperand >= 1 && p.SecondOperand >= 1 && p.Answer >= 1
	switch p.Operation {
	case models.OpAdd, models.OpSub:
		inRange = inRange &&
			p.FirstOperand <= r.MaxOperand &&
			p.SecondOperand <= r.Ceiling &&
			p.Answer <= r.Ceiling
	case models.OpMul:
		inRange = inRange &&
			p.FirstOperand <= r.MaxOperand &&
			p.SecondOperand <= r.MaxOperand &&
			p.Answer <= r.Ceiling
	case models.OpDiv:
		inRange = inRange &&
			p.FirstOperand <= r.Ceiling &&
			p.SecondOperand >= 2 &&
			p.SecondOperand <= r.MaxOperand
	}
	if !inRange {
		return fmt.Errorf("%s (%s): %w", p, tier.ID, ErrOutOfRange)
	}
	return nil
}

// VerifySet checks every problem of set plus the cipher invariants: no two
// letters share a value and every keyed answer matches its letter's value.
func VerifySet(set models.ProblemSet, tier Tier) error {
	seen := map[int]string{}
	for letter, v := range set.Cipher.Values {
		if other, dup := seen[v]; dup {
			return fmt.Errorf("%s and %s both map to %d: %w", other, letter, v, ErrCipherReused)
		}
		seen[v] = letter
	}

	for i, p := range set.Problems {
		if err := Verify(p, tier); err != nil {
			return fmt.Errorf("problem %d: %w", i+1, err)
		}
		if !p.Keyed() {
			continue
		}
		want, ok := set.Cipher.Lookup(p.Letter)
		if !ok {
			return fmt.Errorf("problem %d letter %s: %w", i+1, p.Letter, ErrUnknownLetter)
		}
		if want != p.Answer {
			return fmt.Errorf("problem %d letter %s: %w", i+1, p.Letter, ErrKeyMismatch)
		}
	}
	return nil
}
