package generator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/worksheet-gen/backend/internal/models"
)

// OperationRange bounds one operation within a tier.
//
// For addition and subtraction Ceiling bounds the answer and the second
// operand, MaxOperand bounds the first operand. For multiplication Ceiling
// bounds the product and MaxOperand bounds both factors. For division
// Ceiling bounds the dividend and MaxOperand is the largest divisor.
type OperationRange struct {
	Ceiling    int
	MaxOperand int
}

// Tier is a named difficulty level: one range per operation plus the seed
// the cipher builder starts numbering letters from.
type Tier struct {
	ID          models.Difficulty
	Addition    OperationRange
	Subtraction OperationRange
	Multiply    OperationRange
	Division    OperationRange
	CipherStart int
	CipherStep  int
}

// Range returns the range that governs op.
func (t Tier) Range(op models.Operation) OperationRange {
	switch op {
	case models.OpSub:
		return t.Subtraction
	case models.OpMul:
		return t.Multiply
	case models.OpDiv:
		return t.Division
	default:
		return t.Addition
	}
}

// CipherCeiling is the largest number a letter can be assigned.
func (t Tier) CipherCeiling() int {
	return t.Addition.Ceiling
}

// CipherCapacity is how many distinct letters the tier can number: every
// value from 2 up to the addition ceiling.
func (t Tier) CipherCapacity() int {
	if t.Addition.Ceiling < 2 {
		return 0
	}
	return t.Addition.Ceiling - 1
}

func (t Tier) validate() error {
	if t.ID == "" {
		return fmt.Errorf("tier id is required")
	}
	for _, op := range models.AllOperations {
		r := t.Range(op)
		if r.Ceiling < 1 || r.MaxOperand < 1 {
			return fmt.Errorf("tier %s: %s range must be positive", t.ID, op)
		}
	}
	if t.Division.MaxOperand < 2 {
		return fmt.Errorf("tier %s: division needs a max divisor of at least 2", t.ID)
	}
	if t.CipherStart < 1 || t.CipherStep < 1 {
		return fmt.Errorf("tier %s: cipher start and step must be positive", t.ID)
	}
	return nil
}

// ErrTierExists is returned when registering an id that is already taken.
var ErrTierExists = errors.New("tier already registered")

// Built-in tiers. Callers get copies through LookupTier and Tiers.
var (
	easyTier = Tier{
		ID:          models.DifficultyEasy,
		Addition:    OperationRange{Ceiling: 10, MaxOperand: 7},
		Subtraction: OperationRange{Ceiling: 10, MaxOperand: 10},
		Multiply:    OperationRange{Ceiling: 25, MaxOperand: 5},
		Division:    OperationRange{Ceiling: 20, MaxOperand: 5},
		CipherStart: 2,
		CipherStep:  1,
	}
	mediumTier = Tier{
		ID:          models.DifficultyMedium,
		Addition:    OperationRange{Ceiling: 20, MaxOperand: 15},
		Subtraction: OperationRange{Ceiling: 20, MaxOperand: 20},
		Multiply:    OperationRange{Ceiling: 100, MaxOperand: 10},
		Division:    OperationRange{Ceiling: 50, MaxOperand: 10},
		CipherStart: 5,
		CipherStep:  3,
	}
	hardTier = Tier{
		ID:          models.DifficultyHard,
		Addition:    OperationRange{Ceiling: 100, MaxOperand: 50},
		Subtraction: OperationRange{Ceiling: 100, MaxOperand: 100},
		Multiply:    OperationRange{Ceiling: 144, MaxOperand: 12},
		Division:    OperationRange{Ceiling: 100, MaxOperand: 12},
		CipherStart: 5,
		CipherStep:  6,
	}
)

var (
	tiersMu sync.RWMutex
	tiers   = map[models.Difficulty]Tier{
		models.DifficultyEasy:   easyTier,
		models.DifficultyMedium: mediumTier,
		models.DifficultyHard:   hardTier,
	}
	tierOrder = []models.Difficulty{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard}
)

// RegisterTier adds a tier under a new id. Registered tiers, built-in or
// not, are never replaced.
func RegisterTier(t Tier) error {
	if err := t.validate(); err != nil {
		return err
	}
	tiersMu.Lock()
	defer tiersMu.Unlock()
	if _, ok := tiers[t.ID]; ok {
		return fmt.Errorf("register tier %s: %w", t.ID, ErrTierExists)
	}
	tiers[t.ID] = t
	tierOrder = append(tierOrder, t.ID)
	return nil
}

// LookupTier returns the tier registered under id.
func LookupTier(id models.Difficulty) (Tier, bool) {
	tiersMu.RLock()
	defer tiersMu.RUnlock()
	t, ok := tiers[id]
	return t, ok
}

// Tiers returns every registered tier in registration order.
func Tiers() []Tier {
	tiersMu.RLock()
	defer tiersMu.RUnlock()
	out := make([]Tier, 0, len(tierOrder))
	for _, id := range tierOrder {
		out = append(out, tiers[id])
	}
	return out
}

// tierFor resolves id for generation. Unknown ids run as the hard tier.
func tierFor(id models.Difficulty) Tier {
	if t, ok := LookupTier(id); ok {
		return t
	}
	return hardTier
}
