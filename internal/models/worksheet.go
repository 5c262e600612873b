package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Operation string

const (
	OpAdd Operation = "add"
	OpSub Operation = "sub"
	OpMul Operation = "mul"
	OpDiv Operation = "div"
)

// AllOperations lists operations in their canonical round-robin order.
var AllOperations = []Operation{OpAdd, OpSub, OpMul, OpDiv}

// Symbol returns the printed operator for the operation.
func (o Operation) Symbol() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "×"
	case OpDiv:
		return "÷"
	default:
		return "?"
	}
}

// Apply evaluates a op b. The bool is false for unknown operations and for
// divisions that are not exact.
func (o Operation) Apply(a, b int) (int, bool) {
	switch o {
	case OpAdd:
		return a + b, true
	case OpSub:
		return a - b, true
	case OpMul:
		return a * b, true
	case OpDiv:
		if b == 0 || a%b != 0 {
			return 0, false
		}
		return a / b, true
	default:
		return 0, false
	}
}

func (o Operation) Valid() bool {
	switch o {
	case OpAdd, OpSub, OpMul, OpDiv:
		return true
	}
	return false
}

// OperationSet is the set of enabled operations, one named flag per operation.
type OperationSet struct {
	Addition       bool `json:"addition" yaml:"addition"`
	Subtraction    bool `json:"subtraction" yaml:"subtraction"`
	Multiplication bool `json:"multiplication" yaml:"multiplication"`
	Division       bool `json:"division" yaml:"division"`
}

// Enabled reports whether op is switched on.
func (s OperationSet) Enabled(op Operation) bool {
	switch op {
	case OpAdd:
		return s.Addition
	case OpSub:
		return s.Subtraction
	case OpMul:
		return s.Multiplication
	case OpDiv:
		return s.Division
	}
	return false
}

// With returns a copy of s with op set to enabled.
func (s OperationSet) With(op Operation, enabled bool) OperationSet {
	switch op {
	case OpAdd:
		s.Addition = enabled
	case OpSub:
		s.Subtraction = enabled
	case OpMul:
		s.Multiplication = enabled
	case OpDiv:
		s.Division = enabled
	}
	return s
}

// List returns the enabled operations in canonical order.
func (s OperationSet) List() []Operation {
	var ops []Operation
	for _, op := range AllOperations {
		if s.Enabled(op) {
			ops = append(ops, op)
		}
	}
	return ops
}

func (s OperationSet) Empty() bool {
	return len(s.List()) == 0
}

// GenerationConfig is the subset of worksheet settings the generator consumes.
type GenerationConfig struct {
	SecretMessage string       `json:"secret_message"`
	Difficulty    Difficulty   `json:"difficulty"`
	Operations    OperationSet `json:"operations"`
	ProblemCount  int          `json:"problem_count"`
}

type Problem struct {
	FirstOperand  int       `json:"first_operand"`
	SecondOperand int       `json:"second_operand"`
	Operation     Operation `json:"operation"`
	Answer        int       `json:"answer"`
	Letter        string    `json:"letter,omitempty"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%d %s %d = %d", p.FirstOperand, p.Operation.Symbol(), p.SecondOperand, p.Answer)
}

// Keyed reports whether the problem's answer encodes a cipher letter.
func (p Problem) Keyed() bool {
	return p.Letter != ""
}

// CipherMap is the letter → number substitution table for one generation pass.
// Letters holds the assigned letters in assignment order.
type CipherMap struct {
	Letters    []string       `json:"letters"`
	Values     map[string]int `json:"values"`
	Unassigned []string       `json:"unassigned,omitempty"`
}

func NewCipherMap() CipherMap {
	return CipherMap{Values: map[string]int{}}
}

// Lookup returns the number assigned to letter, if any.
func (c CipherMap) Lookup(letter string) (int, bool) {
	v, ok := c.Values[letter]
	return v, ok
}

// Complete reports whether every distinct message letter received a number.
func (c CipherMap) Complete() bool {
	return len(c.Unassigned) == 0
}

// Report collects the non-fatal conditions of a generation pass.
type Report struct {
	OperationsCoerced      bool     `json:"operations_coerced,omitempty"`
	UnassignedLetters      []string `json:"unassigned_letters,omitempty"`
	UnconstructableLetters []string `json:"unconstructable_letters,omitempty"`
	DroppedLetters         []string `json:"dropped_letters,omitempty"`
	Requested              int      `json:"requested"`
	Produced               int      `json:"produced"`
}

// InfeasibleCipher reports that the tier could not number every letter.
func (r Report) InfeasibleCipher() bool {
	return len(r.UnassignedLetters) > 0
}

// Shortfall reports whether fewer problems than requested were produced.
func (r Report) Shortfall() bool {
	return r.Produced < r.Requested
}

// Warnings renders the report as user-facing messages.
func (r Report) Warnings() []string {
	var out []string
	if r.OperationsCoerced {
		out = append(out, "no operations were selected; addition was enabled")
	}
	if len(r.UnassignedLetters) > 0 {
		out = append(out, fmt.Sprintf("difficulty has too few numbers for letters %v", r.UnassignedLetters))
	}
	if len(r.UnconstructableLetters) > 0 {
		out = append(out, fmt.Sprintf("no problem could be built for letters %v", r.UnconstructableLetters))
	}
	if len(r.DroppedLetters) > 0 {
		out = append(out, fmt.Sprintf("problem count too small; letters %v have no problem", r.DroppedLetters))
	}
	if r.Shortfall() {
		out = append(out, fmt.Sprintf("only %d of %d problems could be generated", r.Produced, r.Requested))
	}
	return out
}

type ProblemSet struct {
	Problems []Problem `json:"problems"`
	Cipher   CipherMap `json:"cipher"`
	Report   Report    `json:"report"`
}

// ── Worksheet Settings ─────────────────────────────────

type Theme string

const (
	ThemeDefault   Theme = "default"
	ThemeMinecraft Theme = "minecraft"
	ThemeCandyland Theme = "candyland"
	ThemeSuperhero Theme = "superhero"
	ThemeDinosaur  Theme = "dinosaur"
)

var ValidThemes = map[Theme]bool{
	ThemeDefault:   true,
	ThemeMinecraft: true,
	ThemeCandyland: true,
	ThemeSuperhero: true,
	ThemeDinosaur:  true,
}

// Settings is the full worksheet configuration a teacher edits and saves.
type Settings struct {
	Title              string       `json:"title" validate:"max=200"`
	NumberOfProblems   int          `json:"number_of_problems" validate:"min=1,max=200"`
	MaxNumber          int          `json:"max_number" validate:"min=0,max=1000"`
	Difficulty         Difficulty   `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Operations         OperationSet `json:"selected_operations"`
	SecretMessage      string       `json:"secret_message" validate:"max=200"`
	IncludeCodeBreaker bool         `json:"include_code_breaker"`
	PrefilledWords     []string     `json:"prefilled_words" validate:"max=20,dive,min=1,max=50"`
	Theme              Theme        `json:"theme" validate:"omitempty,oneof=default minecraft candyland superhero dinosaur"`
}

// DefaultSettings mirrors the worksheet a new teacher starts from.
func DefaultSettings() Settings {
	return Settings{
		Title:              "Numbers Under 100",
		NumberOfProblems:   10,
		MaxNumber:          100,
		Difficulty:         DifficultyEasy,
		Operations:         OperationSet{Addition: true, Subtraction: true},
		SecretMessage:      "SUPERHEROES SAVE THE DAY",
		IncludeCodeBreaker: true,
		PrefilledWords:     []string{"THE", "SAVE"},
		Theme:              ThemeDefault,
	}
}

// GenerationConfig projects the settings onto what the generator needs.
func (s Settings) GenerationConfig() GenerationConfig {
	return GenerationConfig{
		SecretMessage: s.SecretMessage,
		Difficulty:    s.Difficulty,
		Operations:    s.Operations,
		ProblemCount:  s.NumberOfProblems,
	}
}

// Value stores Settings in a JSONB column.
func (s Settings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan reads Settings back from a JSONB column.
func (s *Settings) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*s = Settings{}
		return nil
	default:
		return fmt.Errorf("scan settings: unsupported type %T", src)
	}
	return json.Unmarshal(data, s)
}

// ── API Request/Response Types ────────────────────────────

type GenerateRequest struct {
	Settings Settings `json:"settings" validate:"required"`
	Seed     *int64   `json:"seed,omitempty"`
}

type GenerateResponse struct {
	Problems []Problem `json:"problems"`
	Cipher   CipherMap `json:"cipher"`
	Warnings []string  `json:"warnings,omitempty"`
	Report   Report    `json:"report"`
	Seed     int64     `json:"seed"`
}

type VariantsRequest struct {
	Settings Settings `json:"settings" validate:"required"`
	Count    int      `json:"count" validate:"min=1,max=40"`
	Seed     *int64   `json:"seed,omitempty"`
}

type VariantsResponse struct {
	Variants []GenerateResponse `json:"variants"`
}

type ShareRequest struct {
	Settings Settings  `json:"settings" validate:"required"`
	Problems []Problem `json:"problems" validate:"required,min=1"`
}

type ShareResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

type DraftResponse struct {
	ID          string    `json:"id"`
	Settings    Settings  `json:"settings"`
	Problems    []Problem `json:"problems"`
	Cipher      CipherMap `json:"cipher"`
	Warnings    []string  `json:"warnings,omitempty"`
	Generation  int       `json:"generation"`
	Regenerated bool      `json:"regenerated"`
	Changed     []string  `json:"changed,omitempty"`
}

// DraftUpdateRequest carries one or more discrete setter operations.
// Nil fields are left untouched.
type DraftUpdateRequest struct {
	Title              *string            `json:"title,omitempty" validate:"omitempty,max=200"`
	Theme              *Theme             `json:"theme,omitempty" validate:"omitempty,oneof=default minecraft candyland superhero dinosaur"`
	Difficulty         *Difficulty        `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
	SecretMessage      *string            `json:"secret_message,omitempty" validate:"omitempty,max=200"`
	NumberOfProblems   *int               `json:"number_of_problems,omitempty" validate:"omitempty,min=1,max=200"`
	MaxNumber          *int               `json:"max_number,omitempty" validate:"omitempty,min=0,max=1000"`
	IncludeCodeBreaker *bool              `json:"include_code_breaker,omitempty"`
	PrefilledWords     []string           `json:"prefilled_words,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
	Operations         map[Operation]bool `json:"operations,omitempty"`
}

type TierResponse struct {
	ID             Difficulty              `json:"id"`
	Ranges         map[Operation]RangeView `json:"ranges"`
	CipherCapacity int                     `json:"cipher_capacity"`
}

type RangeView struct {
	Ceiling    int `json:"ceiling"`
	MaxOperand int `json:"max_operand"`
}
