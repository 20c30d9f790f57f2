package dedup

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/abhisek/prepgen/internal/curriculum"
	"github.com/abhisek/prepgen/internal/problemgen"
	"github.com/abhisek/prepgen/internal/store"
	"go.uber.org/zap"
)

// Config tunes duplicate detection.
type Config struct {
	Scope Scope

	// Semantic enables adjudication of pairs the category rule leaves
	// undecided.
	Semantic bool

	// MaxComparisons caps how many undecided priors, nearest first, are
	// shown to the adjudicator.
	MaxComparisons int

	// ConfidenceCutoff is the minimum confidence for a semantic duplicate
	// verdict to count.
	ConfidenceCutoff float64

	// MaxPriors caps how many bank questions are loaded per check. Zero
	// loads all.
	MaxPriors int
}

// DefaultConfig returns the standard detection settings.
func DefaultConfig() Config {
	return Config{
		Scope:            ScopeCurrentMode,
		Semantic:         true,
		MaxComparisons:   10,
		ConfidenceCutoff: 0.8,
		MaxPriors:        500,
	}
}

// Detector runs the staged duplicate check. It implements
// problemgen.Validator.
type Detector struct {
	repo        store.QuestionRepo
	adjudicator Adjudicator
	cfg         Config
	log         *zap.Logger
}

// New creates a Detector. adjudicator may be nil, which disables the
// semantic stage.
func New(repo store.QuestionRepo, adjudicator Adjudicator, cfg Config, log *zap.Logger) *Detector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Detector{repo: repo, adjudicator: adjudicator, cfg: cfg, log: log}
}

func (d *Detector) Name() string { return "duplicate" }

// Validate loads the priors in scope and checks the candidate against them.
func (d *Detector) Validate(ctx context.Context, q *problemgen.Question, input problemgen.GenerateInput) error {
	pq := store.PriorQuery{
		Product:  input.Unit.Product,
		Section:  input.Unit.Section.Name,
		SubSkill: input.Unit.SubSkill.Name,
		Limit:    d.cfg.MaxPriors,
	}
	if d.cfg.Scope != ScopeAllModes {
		pq.Mode = string(input.Mode)
	}
	rows, err := d.repo.Priors(ctx, pq)
	if err != nil {
		return fmt.Errorf("load prior questions: %w", err)
	}

	priors := make([]Item, 0, len(rows))
	for _, r := range rows {
		priors = append(priors, Item{Text: r.Text, PassageID: r.PassageID})
	}

	candidate := Item{Text: q.Text}
	if p := input.Passage; p != nil {
		candidate.PassageID = p.ID
		// Questions from sibling sub-skills on the same passage.
		for _, text := range p.Questions {
			priors = append(priors, Item{Text: text, PassageID: p.ID})
		}
	}

	req := checkRequest{
		category:  input.Unit.Category(),
		section:   input.Unit.Section.Name,
		subSkill:  input.Unit.SubSkill.Name,
		candidate: candidate,
		priors:    priors,
	}
	return d.check(ctx, req)
}

// Check compares a candidate with explicit priors, outside any bank
// lookup.
func (d *Detector) Check(ctx context.Context, unit curriculum.UnitSpec, candidate Item, priors []Item) error {
	return d.check(ctx, checkRequest{
		category:  unit.Category(),
		section:   unit.Section.Name,
		subSkill:  unit.SubSkill.Name,
		candidate: candidate,
		priors:    priors,
	})
}

type checkRequest struct {
	category          curriculum.Category
	section, subSkill string
	candidate         Item
	priors            []Item
}

func (d *Detector) check(ctx context.Context, req checkRequest) error {
	key := store.NormalizeText(req.candidate.Text)
	for _, p := range req.priors {
		if store.NormalizeText(p.Text) == key {
			return &problemgen.ValidationError{
				Validator: d.Name(),
				Reason:    problemgen.ReasonExactDuplicate,
				Message:   "identical to an existing question",
				Retryable: true,
			}
		}
	}

	rule := RuleFor(req.category)
	var undecided []Item
	for _, p := range req.priors {
		switch rule(req.candidate, p) {
		case Duplicate:
			return &problemgen.ValidationError{
				Validator: d.Name(),
				Reason:    problemgen.ReasonCategoryDuplicate,
				Message:   fmt.Sprintf("same %s item as existing question %q", req.category, clip(p.Text)),
				Retryable: true,
			}
		case Undecided:
			undecided = append(undecided, p)
		}
	}

	d.log.Debug("duplicate rule pass",
		zap.String("category", string(req.category)),
		zap.Int("priors", len(req.priors)),
		zap.Int("undecided", len(undecided)))

	if !d.cfg.Semantic || d.adjudicator == nil || d.cfg.MaxComparisons <= 0 || len(undecided) == 0 {
		return nil
	}

	nearest := Nearest(req.candidate.Text, undecided, d.cfg.MaxComparisons)
	texts := make([]string, len(nearest))
	for i, p := range nearest {
		texts[i] = p.Text
	}
	j, err := d.adjudicator.Adjudicate(ctx, &AdjudicationRequest{
		Section:   req.section,
		SubSkill:  req.subSkill,
		Candidate: req.candidate.Text,
		Priors:    texts,
	})
	if err != nil {
		return fmt.Errorf("semantic duplicate check: %w", err)
	}

	d.log.Debug("semantic verdict",
		zap.Bool("duplicate", j.Duplicate),
		zap.Int("match", j.Match),
		zap.Float64("confidence", j.Confidence))

	if j.Duplicate && j.Confidence >= d.cfg.ConfidenceCutoff {
		msg := fmt.Sprintf("semantically the same item (confidence %.2f)", j.Confidence)
		if j.Match > 0 {
			msg += fmt.Sprintf(" as %q", clip(texts[j.Match-1]))
		}
		if j.Reasoning != "" {
			msg += ": " + j.Reasoning
		}
		return &problemgen.ValidationError{
			Validator: d.Name(),
			Reason:    problemgen.ReasonSemanticDuplicate,
			Message:   msg,
			Retryable: true,
		}
	}
	return nil
}

// Nearest returns up to n priors ranked by token overlap with text,
// highest first. Ties keep the input order.
func Nearest(text string, priors []Item, n int) []Item {
	base := tokenSet(text)
	type scored struct {
		item  Item
		score float64
	}
	ranked := make([]scored, len(priors))
	for i, p := range priors {
		ranked[i] = scored{p, jaccard(base, tokenSet(p.Text))}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]Item, n)
	for i := range out {
		out[i] = ranked[i].item
	}
	return out
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		set[f] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}

func clip(s string) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) > 80 {
		return string(r[:80]) + "..."
	}
	return string(r)
}
