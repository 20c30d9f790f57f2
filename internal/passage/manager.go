// Package passage creates and reuses the shared reading stimuli that
// passage-anchored questions attach to.
package passage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/abhisek/prepgen/internal/curriculum"
	"github.com/abhisek/prepgen/internal/llm"
	"github.com/abhisek/prepgen/internal/problemgen"
	"github.com/abhisek/prepgen/internal/store"
	"go.uber.org/zap"
)

// Config controls passage generation.
type Config struct {
	// MaxAttempts bounds generation attempts for one new passage.
	MaxAttempts int

	// WordTolerance is the accepted relative deviation from the target
	// word count, e.g. 0.4 for ±40%.
	WordTolerance float64

	MaxTokens   int
	Temperature float64

	// Backoff is applied after transport failures.
	Backoff llm.BackoffConfig
}

// DefaultConfig returns recommended defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		WordTolerance: 0.4,
		MaxTokens:     2048,
		Temperature:   0.9,
		Backoff:       llm.DefaultConfig().Backoff,
	}
}

// Request identifies the passage group a question needs.
type Request struct {
	Unit       curriculum.UnitSpec
	Mode       curriculum.Mode
	Difficulty int
}

// Lease is a passage with room for at least one more question.
type Lease struct {
	Passage *store.Passage

	// Created is true when the passage was generated for this lease.
	Created bool

	// Questions holds the texts already attached.
	Questions []string
}

// Context returns the prompt view of the leased passage.
func (l *Lease) Context() *problemgen.PassageContext {
	return &problemgen.PassageContext{
		ID:        l.Passage.ID,
		Title:     l.Passage.Title,
		Content:   l.Passage.Content,
		Questions: l.Questions,
	}
}

// GenerationError reports that no acceptable passage was produced.
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("passage generation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Manager hands out passages with remaining capacity, generating new ones
// when every existing passage in the group is full.
type Manager struct {
	repo     store.PassageRepo
	provider llm.Provider
	cfg      Config
	log      *zap.Logger
}

// NewManager creates a Manager.
func NewManager(repo store.PassageRepo, provider llm.Provider, cfg Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Manager{repo: repo, provider: provider, cfg: cfg, log: log}
}

// ShareModes returns the modes whose passages a question in mode may
// attach to. Drill passages are never shared; diagnostic and practice share
// only when the section allows it.
func ShareModes(unit curriculum.UnitSpec, mode curriculum.Mode) []string {
	p := unit.Section.Passage
	if mode == curriculum.ModeDrill || p == nil || !p.ShareDiagnosticPractice {
		return []string{string(mode)}
	}
	var modes []string
	for _, m := range unit.Section.Modes() {
		if m != curriculum.ModeDrill {
			modes = append(modes, string(m))
		}
	}
	return modes
}

// Acquire returns a passage for the request: the oldest in the mode group
// with remaining capacity, or a newly generated one.
func (m *Manager) Acquire(ctx context.Context, req Request) (*Lease, error) {
	if !req.Unit.RequiresPassage() {
		return nil, fmt.Errorf("%s does not use passages", req.Unit.Key())
	}

	existing, err := m.repo.FindAvailable(ctx, store.PassageQuery{
		Product:    req.Unit.Product,
		Section:    req.Unit.Section.Name,
		Difficulty: req.Difficulty,
		Modes:      ShareModes(req.Unit, req.Mode),
	})
	if err != nil {
		return nil, fmt.Errorf("find passage: %w", err)
	}
	if existing != nil {
		texts, err := m.repo.QuestionTexts(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("load passage questions: %w", err)
		}
		m.log.Debug("reusing passage",
			zap.String("passage_id", existing.ID),
			zap.Int("attached", existing.Attached),
			zap.Int("capacity", existing.Capacity))
		return &Lease{Passage: existing, Questions: texts}, nil
	}

	p, err := m.generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := m.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("save passage: %w", err)
	}
	m.log.Info("created passage",
		zap.String("passage_id", p.ID),
		zap.String("section", p.Section),
		zap.String("mode", p.Mode),
		zap.Int("difficulty", p.Difficulty),
		zap.Int("words", p.WordCount),
		zap.Int("capacity", p.Capacity))
	return &Lease{Passage: p, Created: true}, nil
}

// generate asks the model for a passage until one passes the checks.
func (m *Manager) generate(ctx context.Context, req Request) (*store.Passage, error) {
	ctx = llm.WithPurpose(ctx, "passage-gen")
	target := req.Unit.PassageWordCount(req.Mode)

	var (
		history []problemgen.Attempt
		lastErr error
	)
	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := m.provider.Generate(ctx, composePassage(req, target, history, m.cfg))
		if err != nil {
			lastErr = err
			if !llm.IsTransport(err) {
				history = append(history, rejected(attempt, responseContent(err), err))
				continue
			}
			m.log.Warn("passage request failed", zap.Int("attempt", attempt), zap.Error(err))
			if attempt < m.cfg.MaxAttempts {
				if err := llm.Sleep(ctx, m.cfg.Backoff.Wait(attempt-1, err)); err != nil {
					return nil, err
				}
			}
			continue
		}

		out, err := parsePassage(resp.Content)
		if err == nil {
			err = m.check(out, target)
		}
		if err != nil {
			lastErr = err
			m.log.Debug("passage rejected", zap.Int("attempt", attempt), zap.Error(err))
			history = append(history, rejected(attempt, string(resp.Content), err))
			continue
		}

		return &store.Passage{
			Product:    req.Unit.Product,
			Section:    req.Unit.Section.Name,
			Mode:       string(req.Mode),
			Title:      out.Title,
			Content:    out.Content,
			WordCount:  WordCount(out.Content),
			Difficulty: req.Difficulty,
			Capacity:   req.Unit.QuestionsPerPassage(req.Mode),
		}, nil
	}
	return nil, &GenerationError{Attempts: m.cfg.MaxAttempts, Err: lastErr}
}

func (m *Manager) check(out *passageOutput, target int) error {
	if out.Title == "" {
		return structural("title is empty")
	}
	if out.Content == "" {
		return structural("content is empty")
	}
	for _, text := range []string{out.Title, out.Content} {
		if hit := problemgen.ScanHallucination(text); hit != "" {
			return &problemgen.ValidationError{
				Validator: "passage",
				Reason:    problemgen.ReasonHallucination,
				Message:   fmt.Sprintf("self-correction %q in passage", hit),
				Retryable: true,
			}
		}
	}
	if target > 0 && m.cfg.WordTolerance > 0 {
		n := WordCount(out.Content)
		lo := int(math.Round(float64(target) * (1 - m.cfg.WordTolerance)))
		hi := int(math.Round(float64(target) * (1 + m.cfg.WordTolerance)))
		if n < lo || n > hi {
			return structural(fmt.Sprintf("passage has %d words, want %d-%d", n, lo, hi))
		}
	}
	return nil
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

func structural(msg string) error {
	return &problemgen.ValidationError{
		Validator: "passage",
		Reason:    problemgen.ReasonStructural,
		Message:   msg,
		Retryable: true,
	}
}

func rejected(attempt int, content string, err error) problemgen.Attempt {
	a := problemgen.Attempt{
		Number:        attempt,
		CandidateText: content,
		Reason:        problemgen.ReasonStructural,
		Detail:        err.Error(),
	}
	var verr *problemgen.ValidationError
	if errors.As(err, &verr) {
		a.Reason = verr.Reason
		a.Detail = verr.Message
	}
	return a
}

func responseContent(err error) string {
	var invalid *llm.ErrInvalidResponse
	if errors.As(err, &invalid) {
		return string(invalid.Content)
	}
	var truncated *llm.ErrMaxTokensExceeded
	if errors.As(err, &truncated) {
		return string(truncated.Content)
	}
	return ""
}
