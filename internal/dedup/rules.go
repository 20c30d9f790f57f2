package dedup

import (
	"regexp"
	"slices"
	"strings"

	"github.com/abhisek/prepgen/internal/curriculum"
)

// Rule compares a candidate with one prior question of the same sub-skill.
type Rule func(candidate, prior Item) Verdict

// RuleFor returns the duplicate rule for a section category. Categories
// without a rule leave every pair undecided.
func RuleFor(c curriculum.Category) Rule {
	switch c {
	case curriculum.CategoryVerbal:
		return VerbalRule
	case curriculum.CategoryMaths:
		return MathsRule
	case curriculum.CategoryReading:
		return ReadingRule
	}
	return func(Item, Item) Verdict { return Undecided }
}

// Verbal questions are duplicates only when they share both the target word
// and the question type.

var (
	capsWordRe   = regexp.MustCompile(`\b[A-Z][A-Z'-]+\b`)
	quotedWordRe = regexp.MustCompile(`["“]([A-Za-z][A-Za-z'-]*)["”]|(?:^|\W)'([A-Za-z][A-Za-z-]*)'(?:\W|$)`)

	// Emphasis words written in capitals that are not targets.
	emphasisWords = map[string]bool{
		"NOT": true, "EXCEPT": true, "LEAST": true, "MOST": true, "BEST": true,
		"ALWAYS": true, "NEVER": true, "TRUE": true, "FALSE": true, "ONE": true,
		"TWO": true, "ALL": true, "NO": true, "OPPOSITE": true, "SAME": true,
		"SIMILAR": true, "ANTONYM": true, "SYNONYM": true,
	}
)

type verbalKind struct {
	name     string
	patterns []string
}

// Checked in order; antonym and synonym phrasing contains "meaning", so
// they come before definition.
var verbalKinds = []verbalKind{
	{"antonym", []string{"opposite", "antonym", "contrary"}},
	{"synonym", []string{"similar", "synonym", "same meaning", "closest in meaning", "nearest in meaning", "means the same"}},
	{"analogy", []string{" is to ", "analogy", "relationship"}},
	{"odd-one-out", []string{"odd one out", "does not belong", "doesn't belong", "not belong"}},
	{"spelling", []string{"spelled", "spelt", "spelling"}},
	{"definition", []string{"meaning of", " means", "definition", "defined"}},
	{"completion", []string{"complete the sentence", "fill in", "blank", "___"}},
}

// VerbalTarget returns the target words and question type of a verbal
// question. Either may be empty when the text gives no signal.
func VerbalTarget(text string) (targets []string, kind string) {
	for _, w := range capsWordRe.FindAllString(text, -1) {
		if !emphasisWords[w] {
			targets = append(targets, strings.ToLower(w))
		}
	}
	if len(targets) == 0 {
		for _, m := range quotedWordRe.FindAllStringSubmatch(text, -1) {
			targets = append(targets, strings.ToLower(m[1]+m[2]))
		}
	}
	slices.Sort(targets)
	targets = slices.Compact(targets)

	lower := " " + strings.ToLower(text) + " "
	for _, k := range verbalKinds {
		for _, p := range k.patterns {
			if strings.Contains(lower, p) {
				return targets, k.name
			}
		}
	}
	return targets, ""
}

// VerbalRule: same target word and same question type is a duplicate.
func VerbalRule(candidate, prior Item) Verdict {
	ct, ck := VerbalTarget(candidate.Text)
	pt, pk := VerbalTarget(prior.Text)
	if len(ct) == 0 || len(pt) == 0 || ck == "" || pk == "" {
		return Undecided
	}
	if ck == pk && slices.Equal(ct, pt) {
		return Duplicate
	}
	return Distinct
}

// Maths questions are duplicates only when they use the same operands in
// the same kind of calculation.

var (
	numberRe = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?(?:/\d+)?`)

	symbolKinds = []struct {
		re   *regexp.Regexp
		kind string
	}{
		{regexp.MustCompile(`\d\s*\+\s*\d`), "addition"},
		{regexp.MustCompile(`\d\s+-\s+\d|\d\s*−\s*\d`), "subtraction"},
		{regexp.MustCompile(`\d\s*[*×]\s*\d|\d\s+x\s+\d`), "multiplication"},
		{regexp.MustCompile(`\d\s*÷\s*\d|\d\s+/\s+\d`), "division"},
		{regexp.MustCompile(`%`), "percentage"},
	}

	wordKinds = []struct {
		re   *regexp.Regexp
		kind string
	}{
		{keywords("sum", "sums", "add", "adds", "added", "plus", "total", "altogether", "more than"), "addition"},
		{keywords("difference", "subtract", "subtracted", "minus", "take away", "left", "fewer", "less than"), "subtraction"},
		{keywords("product", "multiply", "multiplied", "times", "each costs", "groups of"), "multiplication"},
		{keywords("divide", "divided", "quotient", "share", "shared", "split", "per", "each get"), "division"},
		{keywords("percent", "percentage", "discount"), "percentage"},
		{keywords("fraction of"), "fraction-of"},
		{keywords("ratio"), "ratio"},
		{keywords("area"), "area"},
		{keywords("perimeter"), "perimeter"},
		{keywords("volume"), "volume"},
		{keywords("angle", "angles", "degrees"), "angle"},
		{keywords("average", "mean"), "average"},
		{keywords("pattern", "sequence", "next number"), "sequence"},
		{keywords("time", "minute", "minutes", "hour", "hours", "o'clock"), "time"},
	}

	// Arithmetic kinds name the calculation. When one is present, context
	// kinds only describe the setting and are left out of the signature.
	arithmeticKinds = []string{"addition", "subtraction", "multiplication", "division"}
	contextKinds    = []string{"time"}
)

// MathsSignature returns the sorted operands and calculation kinds of a
// maths question.
func MathsSignature(text string) (operands, kinds []string) {
	for _, n := range numberRe.FindAllString(text, -1) {
		operands = append(operands, strings.ReplaceAll(n, ",", ""))
	}
	slices.Sort(operands)

	for _, s := range symbolKinds {
		if s.re.MatchString(text) {
			kinds = append(kinds, s.kind)
		}
	}
	for _, w := range wordKinds {
		if w.re.MatchString(text) {
			kinds = append(kinds, w.kind)
		}
	}
	if slices.ContainsFunc(kinds, func(k string) bool { return slices.Contains(arithmeticKinds, k) }) {
		kinds = slices.DeleteFunc(kinds, func(k string) bool { return slices.Contains(contextKinds, k) })
	}
	slices.Sort(kinds)
	kinds = slices.Compact(kinds)
	return operands, kinds
}

// keywords matches any of words as whole words, case-insensitively.
func keywords(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// MathsRule: same operand multiset in the same kind of calculation is a
// duplicate. Different operands are distinct regardless of structure.
func MathsRule(candidate, prior Item) Verdict {
	co, ck := MathsSignature(candidate.Text)
	po, pk := MathsSignature(prior.Text)
	if len(co) == 0 || len(po) == 0 {
		return Undecided
	}
	if !slices.Equal(co, po) {
		return Distinct
	}
	if len(ck) == 0 || len(pk) == 0 {
		return Undecided
	}
	if slices.Equal(ck, pk) {
		return Duplicate
	}
	return Distinct
}

// Reading questions are duplicates only when they ask the same thing about
// the same passage.

var (
	quotedPhraseRe = regexp.MustCompile(`["“]([^"”]{2,60})["”]|(?:^|\W)'([^']{2,60})'(?:\W|$)`)
	paragraphRe    = regexp.MustCompile(`(?i)\b(paragraph|line|stanza)\s+(\d+|one|two|three|four|five|six)\b`)

	readingKinds = []verbalKind{
		{"main-idea", []string{"main idea", "mainly about", "best title", "central idea", "summary", "summarises", "summarizes"}},
		{"purpose", []string{"purpose", "why did the author", "why does the author", "author's aim", "written to"}},
		{"tone", []string{"tone", "mood", "attitude", "feel about"}},
		{"vocabulary", []string{"word", "phrase", "closest in meaning", "as used in", "means"}},
		{"inference", []string{"infer", "suggest", "imply", "most likely", "probably", "conclude"}},
		{"sequence", []string{"first", "before", "after", "order", "finally"}},
		{"detail", []string{"according to", "which of the following is true", "what did", "where did", "when did", "who "}},
	}
)

// ReadingFocus returns the question kind and its anchor (quoted phrase or
// paragraph reference). kind is empty when the stem gives no signal.
func ReadingFocus(text string) (kind, anchor string) {
	lower := strings.ToLower(text)
	for _, k := range readingKinds {
		for _, p := range k.patterns {
			if strings.Contains(lower, p) {
				kind = k.name
				break
			}
		}
		if kind != "" {
			break
		}
	}
	var anchors []string
	for _, m := range quotedPhraseRe.FindAllStringSubmatch(text, -1) {
		anchors = append(anchors, strings.ToLower(strings.TrimSpace(m[1]+m[2])))
	}
	for _, m := range paragraphRe.FindAllStringSubmatch(text, -1) {
		anchors = append(anchors, strings.ToLower(m[1]+" "+m[2]))
	}
	slices.Sort(anchors)
	return kind, strings.Join(anchors, "|")
}

// wholePassageKinds ask about the passage as a whole, so one per passage.
var wholePassageKinds = map[string]bool{"main-idea": true, "purpose": true, "tone": true}

// ReadingRule: questions on different passages are distinct; on the same
// passage they are duplicates when the focus and anchor match.
func ReadingRule(candidate, prior Item) Verdict {
	if candidate.PassageID == "" || prior.PassageID == "" {
		return Undecided
	}
	if candidate.PassageID != prior.PassageID {
		return Distinct
	}
	ck, ca := ReadingFocus(candidate.Text)
	pk, pa := ReadingFocus(prior.Text)
	if ck == "" || pk == "" {
		return Undecided
	}
	if ck != pk {
		return Distinct
	}
	if ca != "" || pa != "" {
		if ca == pa {
			return Duplicate
		}
		return Distinct
	}
	if wholePassageKinds[ck] {
		return Duplicate
	}
	return Undecided
}
