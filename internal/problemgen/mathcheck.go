package problemgen

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strings"

	"github.com/abhisek/prepgen/internal/curriculum"
)

// AnswerKeyValidator independently recomputes a maths answer from the
// question text when the text holds a single binary arithmetic or fraction
// expression. Word problems and other non-computable questions pass
// through silently.
type AnswerKeyValidator struct{}

func (v *AnswerKeyValidator) Name() string { return "answer-key" }

func (v *AnswerKeyValidator) Validate(_ context.Context, q *Question, input GenerateInput) error {
	if input.Unit.Section == nil || input.Unit.Category() != curriculum.CategoryMaths {
		return nil
	}
	computed, err := computeAnswer(q.Text)
	if err != nil {
		return nil
	}
	declared, typ, ok := numericAnswer(q.CorrectAnswer)
	if !ok {
		return nil
	}
	if !answersEqual(computed, declared, typ) {
		return &ValidationError{
			Validator: v.Name(),
			Reason:    ReasonStructural,
			Message:   fmt.Sprintf("computed %s but the answer key says %q", computed.RatString(), q.CorrectAnswer),
			Retryable: true,
		}
	}
	return nil
}

var (
	// A binary expression: operands are integers, decimals or unspaced
	// fractions. Minus, x and / need spaces to be read as operators so
	// ranges, words and fractions are not mistaken for arithmetic.
	binaryExprRe = regexp.MustCompile(`(?:^|[^\w./])(\d+(?:\.\d+)?(?:/\d+)?)(\s*[+*×÷]\s*|\s+[-x/]\s+)(\d+(?:\.\d+)?(?:/\d+)?)(?:[^\w/.]|\.(?:\s|$)|$)`)

	operatorTokenRe = regexp.MustCompile(`[+*×÷]|\s[-x/]\s`)
)

// computeAnswer extracts and evaluates the single arithmetic expression in
// text. Text with zero or several operators is not computable.
func computeAnswer(text string) (*big.Rat, error) {
	if n := len(operatorTokenRe.FindAllString(text, -1)); n != 1 {
		return nil, fmt.Errorf("not computable: %d operators", n)
	}
	m := binaryExprRe.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("no arithmetic expression found")
	}

	a, ok := new(big.Rat).SetString(m[1])
	if !ok {
		return nil, fmt.Errorf("invalid operand %q", m[1])
	}
	b, ok := new(big.Rat).SetString(m[3])
	if !ok {
		return nil, fmt.Errorf("invalid operand %q", m[3])
	}

	switch normalizeOp(strings.TrimSpace(m[2])) {
	case "+":
		return new(big.Rat).Add(a, b), nil
	case "-":
		return new(big.Rat).Sub(a, b), nil
	case "*":
		return new(big.Rat).Mul(a, b), nil
	case "/":
		if b.Sign() == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return new(big.Rat).Quo(a, b), nil
	}
	return nil, fmt.Errorf("unsupported operator %q", m[2])
}

// normalizeOp normalizes multiplication and division symbols.
func normalizeOp(op string) string {
	switch op {
	case "×", "x":
		return "*"
	case "÷":
		return "/"
	default:
		return op
	}
}

// answersEqual compares a computed value with a declared answer. Decimal
// answers may be rounded to the precision they are written with.
func answersEqual(computed *big.Rat, declared string, typ AnswerType) bool {
	want, err := parseAnswer(declared, typ)
	if err != nil {
		return true
	}
	if computed.Cmp(want) == 0 {
		return true
	}
	if typ != AnswerTypeDecimal {
		return false
	}
	places := 0
	if i := strings.IndexByte(declared, '.'); i >= 0 {
		places = len(strings.TrimSpace(declared)) - i - 1
	}
	got, _ := computed.Float64()
	w, _ := want.Float64()
	return math.Abs(got-w) <= 0.5*math.Pow10(-places)+1e-9
}
