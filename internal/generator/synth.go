package generator

import "github.com/worksheet-gen/backend/internal/models"

const (
	// maxSubtractionAddend caps how far above the answer a keyed subtraction
	// problem's first operand may sit.
	maxSubtractionAddend = 5
	// fillAttempts is how many random answers the filler pass tries per
	// problem before it accepts a duplicate answer.
	fillAttempts = 20
	// fillStallBudget bounds the filler loop: it gives up after this many
	// consecutive iterations that add nothing.
	fillStallBudget = 100
)

// construct builds a problem of op whose answer is exactly answer, or
// reports false when op cannot reach that answer inside the tier.
func construct(op models.Operation, answer int, tier Tier, rnd RandomSource) (models.Problem, bool) {
	switch op {
	case models.OpAdd:
		return constructAdd(answer, tier.Addition, rnd)
	case models.OpSub:
		return constructSub(answer, tier.Subtraction, rnd)
	case models.OpMul:
		return constructMul(answer, tier.Multiply, rnd)
	case models.OpDiv:
		return constructDiv(answer, tier.Division, rnd)
	}
	return models.Problem{}, false
}

func constructAdd(answer int, r OperationRange, rnd RandomSource) (models.Problem, bool) {
	if answer > r.Ceiling {
		return models.Problem{}, false
	}
	hi := min(answer-1, r.MaxOperand)
	if hi < 1 {
		return models.Problem{}, false
	}
	first := rnd.IntRange(1, hi)
	second := answer - first
	if second < 1 || second > r.Ceiling {
		return models.Problem{}, false
	}
	return models.Problem{FirstOperand: first, SecondOperand: second, Operation: models.OpAdd, Answer: answer}, true
}

func constructSub(answer int, r OperationRange, rnd RandomSource) (models.Problem, bool) {
	if answer < 1 {
		return models.Problem{}, false
	}
	hi := min(maxSubtractionAddend, r.Ceiling-answer)
	if hi < 1 {
		return models.Problem{}, false
	}
	first := answer + rnd.IntRange(1, hi)
	if first > r.MaxOperand {
		return models.Problem{}, false
	}
	return models.Problem{FirstOperand: first, SecondOperand: first - answer, Operation: models.OpSub, Answer: answer}, true
}

func constructMul(answer int, r OperationRange, rnd RandomSource) (models.Problem, bool) {
	if answer < 1 || answer > r.Ceiling {
		return models.Problem{}, false
	}
	var pairs [][2]int
	for i := 1; i*i <= answer; i++ {
		if answer%i != 0 {
			continue
		}
		j := answer / i
		if i <= r.MaxOperand && j <= r.MaxOperand {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	if len(pairs) == 0 {
		return models.Problem{}, false
	}
	p := pairs[rnd.IntRange(0, len(pairs)-1)]
	return models.Problem{FirstOperand: p[0], SecondOperand: p[1], Operation: models.OpMul, Answer: answer}, true
}

func constructDiv(answer int, r OperationRange, rnd RandomSource) (models.Problem, bool) {
	if answer < 1 {
		return models.Problem{}, false
	}
	var divisors []int
	for d := 2; d <= r.MaxOperand; d++ {
		if answer*d <= r.Ceiling {
			divisors = append(divisors, d)
		}
	}
	if len(divisors) == 0 {
		return models.Problem{}, false
	}
	d := divisors[rnd.IntRange(0, len(divisors)-1)]
	return models.Problem{FirstOperand: answer * d, SecondOperand: d, Operation: models.OpDiv, Answer: answer}, true
}

// answerRange is the span of answers op can produce inside the tier.
func answerRange(op models.Operation, tier Tier) (lo, hi int) {
	r := tier.Range(op)
	switch op {
	case models.OpAdd:
		return 2, r.Ceiling
	case models.OpSub:
		return 1, r.Ceiling - 1
	case models.OpMul:
		return 1, r.Ceiling
	case models.OpDiv:
		return 1, r.Ceiling / 2
	}
	return 1, 0
}

// constructAny builds some valid problem of op with no constraint on the
// answer. It only fails for tiers whose range cannot hold any problem.
func constructAny(op models.Operation, tier Tier, rnd RandomSource) (models.Problem, bool) {
	r := tier.Range(op)
	switch op {
	case models.OpAdd:
		hi := min(r.MaxOperand, r.Ceiling-1)
		if hi < 1 {
			return models.Problem{}, false
		}
		a := rnd.IntRange(1, hi)
		b := rnd.IntRange(1, r.Ceiling-a)
		return models.Problem{FirstOperand: a, SecondOperand: b, Operation: op, Answer: a + b}, true
	case models.OpSub:
		hi := min(r.MaxOperand, r.Ceiling)
		if hi < 2 {
			return models.Problem{}, false
		}
		a := rnd.IntRange(2, hi)
		b := rnd.IntRange(1, a-1)
		return models.Problem{FirstOperand: a, SecondOperand: b, Operation: op, Answer: a - b}, true
	case models.OpMul:
		hi := min(r.MaxOperand, r.Ceiling)
		if hi < 1 {
			return models.Problem{}, false
		}
		a := rnd.IntRange(1, hi)
		b := rnd.IntRange(1, min(r.MaxOperand, r.Ceiling/a))
		return models.Problem{FirstOperand: a, SecondOperand: b, Operation: op, Answer: a * b}, true
	case models.OpDiv:
		hi := min(r.MaxOperand, r.Ceiling)
		if hi < 2 {
			return models.Problem{}, false
		}
		d := rnd.IntRange(2, hi)
		q := rnd.IntRange(1, r.Ceiling/d)
		return models.Problem{FirstOperand: d * q, SecondOperand: d, Operation: op, Answer: q}, true
	}
	return models.Problem{}, false
}

// cursor walks the enabled operations round-robin. Both passes share one
// cursor so operation usage is spread across the whole worksheet.
type cursor struct {
	ops []models.Operation
	pos int
}

func (c *cursor) next() models.Operation {
	op := c.ops[c.pos]
	c.pos = (c.pos + 1) % len(c.ops)
	return op
}

// synthesizeKeyed builds one problem per assigned cipher letter, in
// assignment order. The returned answer set holds every cipher value so the
// filler pass never reuses a number that decodes to a letter.
func synthesizeKeyed(cipher models.CipherMap, tier Tier, cur *cursor, rnd RandomSource) ([]models.Problem, map[int]bool, []string) {
	used := make(map[int]bool, len(cipher.Values))
	for _, v := range cipher.Values {
		used[v] = true
	}

	var problems []models.Problem
	var unconstructable []string
	n := len(cur.ops)
	for _, letter := range cipher.Letters {
		answer := cipher.Values[letter]

		var (
			p  models.Problem
			ok bool
		)
		for i := 0; i < n && !ok; i++ {
			idx := (cur.pos + i) % n
			if p, ok = construct(cur.ops[idx], answer, tier, rnd); ok {
				cur.pos = (idx + 1) % n
			}
		}
		if !ok {
			// Addition is always allowed as a last resort, enabled or not.
			p, ok = constructAdd(answer, tier.Addition, rnd)
		}
		if !ok {
			unconstructable = append(unconstructable, letter)
			continue
		}
		p.Letter = letter
		problems = append(problems, p)
	}
	return problems, used, unconstructable
}

// fillToTarget appends filler problems until target is reached or the stall
// budget runs out. Fillers prefer answers not yet in used.
func fillToTarget(problems []models.Problem, used map[int]bool, tier Tier, target int, cur *cursor, rnd RandomSource) []models.Problem {
	stalls := 0
	for len(problems) < target && stalls < fillStallBudget {
		op := cur.next()

		p, ok := fillUnique(op, used, tier, rnd)
		if !ok {
			p, ok = constructAny(op, tier, rnd)
		}
		if !ok {
			stalls++
			continue
		}
		stalls = 0
		used[p.Answer] = true
		problems = append(problems, p)
	}
	return problems
}

func fillUnique(op models.Operation, used map[int]bool, tier Tier, rnd RandomSource) (models.Problem, bool) {
	lo, hi := answerRange(op, tier)
	if hi < lo {
		return models.Problem{}, false
	}
	for attempt := 0; attempt < fillAttempts; attempt++ {
		answer := rnd.IntRange(lo, hi)
		if used[answer] {
			continue
		}
		if p, ok := construct(op, answer, tier, rnd); ok {
			return p, true
		}
	}
	return models.Problem{}, false
}
