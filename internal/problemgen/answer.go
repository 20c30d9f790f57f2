package problemgen

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// AnswerType is how a numeric answer option is written.
type AnswerType string

const (
	AnswerTypeInteger  AnswerType = "integer"  // "623", "-15"
	AnswerTypeDecimal  AnswerType = "decimal"  // "3.75"
	AnswerTypeFraction AnswerType = "fraction" // "3/4"
)

// numericAnswerRe finds the number in an answer option such as "$20",
// "3/4 of the cake" or "12.5 cm".
var numericAnswerRe = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?(?:\s*/\s*-?\d+)?`)

// numericAnswer extracts the single number in an answer option and its
// type. ok is false when the option holds no number or several.
func numericAnswer(s string) (value string, typ AnswerType, ok bool) {
	found := numericAnswerRe.FindAllString(s, -1)
	if len(found) != 1 {
		return "", "", false
	}
	v := strings.NewReplacer(",", "", " ", "").Replace(found[0])
	switch {
	case strings.Contains(v, "/"):
		return v, AnswerTypeFraction, true
	case strings.Contains(v, "."):
		return v, AnswerTypeDecimal, true
	default:
		return v, AnswerTypeInteger, true
	}
}

// parseAnswer reads a numeric answer of the given type as an exact
// rational. A fraction may carry its sign on either side of the bar.
func parseAnswer(answer string, typ AnswerType) (*big.Rat, error) {
	answer = strings.TrimSpace(answer)
	if typ == AnswerTypeInteger && strings.ContainsAny(answer, "./") ||
		typ == AnswerTypeDecimal && strings.Contains(answer, "/") {
		return nil, fmt.Errorf("%q is not a %s", answer, typ)
	}

	negate := false
	if typ == AnswerTypeFraction {
		num, den, ok := strings.Cut(answer, "/")
		if !ok {
			return nil, fmt.Errorf("%q is not a fraction", answer)
		}
		if d, neg := strings.CutPrefix(strings.TrimSpace(den), "-"); neg {
			den, negate = d, true
		}
		answer = strings.TrimSpace(num) + "/" + strings.TrimSpace(den)
	}

	r, ok := new(big.Rat).SetString(answer)
	if !ok {
		return nil, fmt.Errorf("invalid %s %q", typ, answer)
	}
	if negate {
		r.Neg(r)
	}
	return r, nil
}
