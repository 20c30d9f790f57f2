// Package engine runs gap-fill generation: it walks the plan section by
// section and drives every missing question through the retry loop.
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/abhisek/prepgen/internal/curriculum"
	"github.com/abhisek/prepgen/internal/dedup"
	"github.com/abhisek/prepgen/internal/gaps"
	"github.com/abhisek/prepgen/internal/llm"
	"github.com/abhisek/prepgen/internal/passage"
	"github.com/abhisek/prepgen/internal/problemgen"
	"github.com/abhisek/prepgen/internal/report"
	"github.com/abhisek/prepgen/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// reasonTransport and reasonPassageFull label report entries for attempts
// that failed without a model candidate to learn from.
const (
	reasonTransport   = "transport"
	reasonPassageFull = "passage_full"
)

// Options controls a run.
type Options struct {
	// MaxAttempts bounds the retry loop per question.
	MaxAttempts int

	// SectionPause is waited between sections.
	SectionPause time.Duration

	// PromptScope selects which bank questions are listed in the prompt as
	// questions to avoid.
	PromptScope dedup.Scope

	// Backoff shapes the wait after a transport failure.
	Backoff llm.BackoffConfig

	// Filter restricts the run to part of the curriculum.
	Filter gaps.Filter

	// RunID labels model events and the report. Empty generates one.
	RunID string
}

// DefaultOptions returns the standard run settings.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:  3,
		SectionPause: 2 * time.Second,
		PromptScope:  dedup.ScopeCurrentMode,
		Backoff:      llm.DefaultConfig().Backoff,
	}
}

// Deps holds the collaborators of a Runner.
type Deps struct {
	Curriculum *curriculum.Curriculum
	Questions  store.QuestionRepo

	// Provider is the primary model.
	Provider llm.Provider

	// Passages serves passage-anchored sections. May be nil when the
	// curriculum has none.
	Passages *passage.Manager

	// Duplicates runs after the local validators. May be nil.
	Duplicates problemgen.Validator

	Generation problemgen.Config
	Log        *zap.Logger
}

// Runner executes gap-fill runs.
type Runner struct {
	cur        *curriculum.Curriculum
	questions  store.QuestionRepo
	provider   llm.Provider
	passages   *passage.Manager
	gen        problemgen.Config
	validators []problemgen.Validator
	opts       Options
	log        *zap.Logger
}

// New creates a Runner.
func New(deps Deps, opts Options) *Runner {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	validators := slices.Clone(deps.Generation.Validators)
	if deps.Duplicates != nil {
		validators = append(validators, deps.Duplicates)
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Runner{
		cur:        deps.Curriculum,
		questions:  deps.Questions,
		provider:   deps.Provider,
		passages:   deps.Passages,
		gen:        deps.Generation,
		validators: validators,
		opts:       opts,
		log:        log,
	}
}

// Plan loads the inventory and computes the run's work.
func (r *Runner) Plan(ctx context.Context) (*gaps.Plan, error) {
	inv, err := r.questions.Inventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	return gaps.Analyze(r.cur, inv, r.opts.Filter), nil
}

// Run generates every missing question of the plan. Unit and section
// failures are recorded in the report; only a failure to read the
// inventory is returned as an error. A cancelled run returns the partial
// report with Cancelled set.
func (r *Runner) Run(ctx context.Context) (*report.Report, error) {
	runID := r.opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = llm.WithRunID(ctx, runID)
	log := r.log.With(zap.String("run_id", runID))

	plan, err := r.Plan(ctx)
	if err != nil {
		return nil, err
	}

	rep := report.New(runID, r.cur.Version)
	for _, s := range plan.Surpluses {
		rep.Surpluses = append(rep.Surpluses, report.Surplus{
			Bucket:   bucketLabel(s.Bucket),
			Expected: s.Expected,
			Actual:   s.Actual,
			Orphan:   s.Orphan,
		})
	}
	for _, s := range plan.Skipped {
		log.Warn("skipping target", zap.Error(s))
		rep.Skipped = append(rep.Skipped, s.Error())
	}

	sections := plan.BySection()
	log.Info("gap-fill started",
		zap.Int("sections", len(sections)),
		zap.Int("tasks", len(plan.Tasks)),
		zap.Int("deficit", plan.TotalDeficit()),
		zap.Int("surpluses", len(plan.Surpluses)))

	for i, sec := range sections {
		if i > 0 && r.opts.SectionPause > 0 {
			log.Debug("pausing between sections", zap.Duration("pause", r.opts.SectionPause))
			if err := llm.Sleep(ctx, r.opts.SectionPause); err != nil {
				rep.Cancelled = true
				break
			}
		}
		if ctx.Err() != nil {
			rep.Cancelled = true
			break
		}
		if !r.runSection(ctx, sec, rep.Section(sec.Name()), log) {
			rep.Cancelled = true
			break
		}
	}

	rep.Finish()
	t := rep.Totals()
	log.Info("gap-fill finished",
		zap.Int("generated", t.Generated),
		zap.Int("passages", t.Passages),
		zap.Int("failed", t.Failed),
		zap.Int("skipped", t.Skipped),
		zap.Bool("cancelled", rep.Cancelled))
	return rep, nil
}

// runSection fills one section. It returns false when the run was
// cancelled.
func (r *Runner) runSection(ctx context.Context, sec gaps.SectionPlan, out *report.Section, log *zap.Logger) bool {
	start := time.Now()
	defer func() { out.SetElapsed(time.Since(start)) }()

	log = log.With(zap.String("section", sec.Name()))
	log.Info("section started", zap.Int("deficit", sec.Deficit()))

	for ti, task := range sec.Tasks {
		for n := 0; n < task.Deficit; n++ {
			if ctx.Err() != nil {
				out.AddWarning("cancelled with %d questions outstanding", remaining(sec.Tasks, ti, n))
				return false
			}

			unit, err := r.fillOne(ctx, task, out, log)
			out.AddUnit(unit)

			var perr *PersistenceError
			switch {
			case err == nil:
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				out.AddWarning("cancelled with %d questions outstanding", remaining(sec.Tasks, ti, n+1))
				return false
			case errors.As(err, &perr):
				log.Error("section aborted", zap.Error(err))
				out.AddError("%v", err)
				skipRest(out, sec.Tasks, ti, n+1)
				return true
			default:
				out.AddError("%v", err)
			}
		}
	}

	log.Info("section finished",
		zap.Int("generated", out.QuestionsGenerated),
		zap.Int("failed", out.Failed))
	return true
}

// fillOne drives one question slot through the retry loop. The returned
// error is a *PersistenceError, a context error, or nil; exhaustion is an
// outcome, not an error.
func (r *Runner) fillOne(ctx context.Context, task gaps.Task, sec *report.Section, log *zap.Logger) (report.Unit, error) {
	unit := report.Unit{
		Task:       task.Key(),
		Mode:       string(task.Mode),
		Difficulty: task.Difficulty,
	}
	log = log.With(zap.String("task", task.Key()))

	input := problemgen.GenerateInput{
		Unit:       task.Unit,
		Mode:       task.Mode,
		Difficulty: task.Difficulty,
	}
	priors, err := r.priorTexts(ctx, task)
	if err != nil {
		return r.skip(unit, err), &PersistenceError{Task: task.Key(), Err: err}
	}
	input.PriorQuestions = priors

	if task.Unit.RequiresPassage() {
		if err := r.attachPassage(ctx, task, &input, sec); err != nil {
			return r.passageFailure(unit, task, err)
		}
	}

	ctx = llm.WithPurpose(ctx, "question-gen")
	m := newMachine(r.opts.MaxAttempts)
	next := StateComposing
	for next == StateComposing {
		if err := ctx.Err(); err != nil {
			return cancelled(unit, err)
		}
		m.to(StateComposing)
		unit.Attempts = m.attempt

		req := problemgen.Compose(input, r.gen)
		m.to(StateRequesting)
		resp, err := r.provider.Generate(ctx, req)
		if err != nil && ctx.Err() != nil {
			// Stopped mid-request: skipped, not a transport failure.
			return cancelled(unit, ctx.Err())
		}
		if err != nil {
			if verr := responseRejection(err); verr != nil {
				input.History = append(input.History, r.record(task, m.attempt, verr))
				unit.Reasons = append(unit.Reasons, string(verr.Reason))
				log.Debug("attempt rejected", zap.Int("attempt", m.attempt), zap.Error(err))
				next = m.reject()
				continue
			}
			terr := &TransportError{Attempt: m.attempt, Err: err}
			unit.Reasons = append(unit.Reasons, reasonTransport)
			log.Warn("attempt failed", zap.Error(terr))
			if next = m.reject(); next == StateComposing {
				if err := llm.Sleep(ctx, r.opts.Backoff.Wait(m.attempt-1, err)); err != nil {
					return cancelled(unit, err)
				}
			}
			continue
		}

		m.to(StateValidating)
		q, err := problemgen.ParseCandidate(resp.Content)
		if err == nil {
			err = problemgen.Chain(ctx, r.validators, q, input)
		}
		if err == nil {
			err = r.persist(ctx, q, &input, &unit, sec)
		}

		var (
			verr *problemgen.ValidationError
			perr *PersistenceError
		)
		switch {
		case err == nil:
			m.to(StateAccepted)
			unit.Outcome = report.OutcomeGenerated
			log.Info("question accepted", zap.Int("attempt", m.attempt), zap.String("question_id", unit.QuestionID))
			return unit, nil

		case errors.As(err, &verr):
			input.History = append(input.History, r.record(task, m.attempt, verr))
			unit.Reasons = append(unit.Reasons, string(verr.Reason))
			log.Debug("attempt rejected",
				zap.Int("attempt", m.attempt),
				zap.String("reason", string(verr.Reason)),
				zap.String("detail", verr.Message))
			next = m.reject()

		case errors.Is(err, store.ErrPassageFull):
			unit.Reasons = append(unit.Reasons, reasonPassageFull)
			log.Info("passage filled by another writer", zap.Int("attempt", m.attempt))
			next = m.reject()
			if next == StateComposing {
				if err := r.attachPassage(ctx, task, &input, sec); err != nil {
					return r.passageFailure(unit, task, err)
				}
			}

		case ctx.Err() != nil:
			return cancelled(unit, ctx.Err())

		case errors.As(err, &perr):
			return r.skip(unit, err), err

		default:
			// A validator that could not run, such as a failed
			// adjudication call.
			unit.Reasons = append(unit.Reasons, reasonTransport)
			log.Warn("validation failed", zap.Int("attempt", m.attempt), zap.Error(err))
			if next = m.reject(); next == StateComposing {
				if err := llm.Sleep(ctx, r.opts.Backoff.Wait(m.attempt-1, err)); err != nil {
					return cancelled(unit, err)
				}
			}
		}
	}

	exhausted := &ExhaustionError{Task: task.Key(), Attempts: m.attempt, History: input.History}
	log.Warn("question exhausted", zap.Error(exhausted), zap.Strings("reasons", unit.Reasons))
	unit.Outcome = report.OutcomeFailed
	unit.Error = exhausted.Error()
	return unit, nil
}

// persist inserts an accepted candidate. A race-lost duplicate comes back
// as an exact_duplicate rejection; a full passage as store.ErrPassageFull.
func (r *Runner) persist(ctx context.Context, q *problemgen.Question, input *problemgen.GenerateInput, unit *report.Unit, sec *report.Section) error {
	row := q.ToStore(*input)
	err := r.questions.Insert(ctx, row)
	switch {
	case err == nil:
		unit.QuestionID = row.ID
		if input.Passage != nil {
			input.Passage.Questions = append(input.Passage.Questions, row.Text)
		}
		return nil
	case errors.Is(err, store.ErrDuplicate):
		return &problemgen.ValidationError{
			Validator: "store",
			Reason:    problemgen.ReasonExactDuplicate,
			Message:   "an identical question was stored while this one was being checked",
			Retryable: true,
			Candidate: q.Text,
		}
	case errors.Is(err, store.ErrPassageFull):
		return err
	default:
		return &PersistenceError{Task: unit.Task, Err: fmt.Errorf("insert question: %w", err)}
	}
}

func (r *Runner) attachPassage(ctx context.Context, task gaps.Task, input *problemgen.GenerateInput, sec *report.Section) error {
	if r.passages == nil {
		return fmt.Errorf("%s needs a passage but no passage manager is configured", task.Unit.Key())
	}
	lease, err := r.passages.Acquire(ctx, passage.Request{
		Unit:       task.Unit,
		Mode:       task.Mode,
		Difficulty: task.Difficulty,
	})
	if err != nil {
		return err
	}
	if lease.Created {
		sec.PassagesGenerated++
	}
	input.Passage = lease.Context()
	return nil
}

// passageFailure turns a passage error into a unit outcome. Generation
// failures fail the unit; anything else is a store problem.
func (r *Runner) passageFailure(unit report.Unit, task gaps.Task, err error) (report.Unit, error) {
	var gerr *passage.GenerationError
	switch {
	case errors.As(err, &gerr):
		unit.Outcome = report.OutcomeFailed
		unit.Attempts = gerr.Attempts
		unit.Error = err.Error()
		unit.Reasons = append(unit.Reasons, "passage_generation")
		return unit, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		unit.Outcome = report.OutcomeSkipped
		unit.Error = "cancelled"
		return unit, err
	default:
		return r.skip(unit, err), &PersistenceError{Task: task.Key(), Err: err}
	}
}

func (r *Runner) skip(unit report.Unit, err error) report.Unit {
	unit.Outcome = report.OutcomeSkipped
	unit.Error = err.Error()
	return unit
}

func (r *Runner) record(task gaps.Task, attempt int, verr *problemgen.ValidationError) problemgen.Attempt {
	return problemgen.Attempt{
		TaskRef:       task.Key(),
		Number:        attempt,
		CandidateText: verr.Candidate,
		Reason:        verr.Reason,
		Detail:        verr.Message,
	}
}

func (r *Runner) priorTexts(ctx context.Context, task gaps.Task) ([]string, error) {
	if r.gen.MaxPriorQuestions <= 0 {
		return nil, nil
	}
	pq := store.PriorQuery{
		Product:  task.Unit.Product,
		Section:  task.Unit.Section.Name,
		SubSkill: task.Unit.SubSkill.Name,
		Limit:    r.gen.MaxPriorQuestions,
	}
	if r.opts.PromptScope != dedup.ScopeAllModes {
		pq.Mode = string(task.Mode)
	}
	rows, err := r.questions.Priors(ctx, pq)
	if err != nil {
		return nil, fmt.Errorf("load prior questions: %w", err)
	}
	texts := make([]string, len(rows))
	for i, q := range rows {
		texts[i] = q.Text
	}
	return texts, nil
}

// responseRejection maps unusable model output to a structural rejection.
// It returns nil for transport failures.
func responseRejection(err error) *problemgen.ValidationError {
	var invalid *llm.ErrInvalidResponse
	if errors.As(err, &invalid) {
		return &problemgen.ValidationError{
			Validator: "schema",
			Reason:    problemgen.ReasonStructural,
			Message:   invalid.Error(),
			Retryable: true,
			Candidate: string(invalid.Content),
		}
	}
	var truncated *llm.ErrMaxTokensExceeded
	if errors.As(err, &truncated) {
		return &problemgen.ValidationError{
			Validator: "schema",
			Reason:    problemgen.ReasonStructural,
			Message:   "response was cut off; keep the solution shorter",
			Retryable: true,
			Candidate: string(truncated.Content),
		}
	}
	return nil
}

func remaining(tasks []gaps.Task, ti, n int) int {
	left := tasks[ti].Deficit - n
	for _, t := range tasks[ti+1:] {
		left += t.Deficit
	}
	return left
}

// skipRest records every slot from (ti, n) onwards as skipped.
func skipRest(out *report.Section, tasks []gaps.Task, ti, n int) {
	for i := ti; i < len(tasks); i++ {
		start := 0
		if i == ti {
			start = n
		}
		for j := start; j < tasks[i].Deficit; j++ {
			out.AddUnit(report.Unit{
				Task:       tasks[i].Key(),
				Mode:       string(tasks[i].Mode),
				Difficulty: tasks[i].Difficulty,
				Outcome:    report.OutcomeSkipped,
				Error:      "section aborted",
			})
		}
	}
}

func bucketLabel(b store.Bucket) string {
	return fmt.Sprintf("%s/%s/%s/%s/d%d", b.Product, b.Section, b.SubSkill, b.Mode, b.Difficulty)
}

// cancelled marks a unit interrupted by the run's context.
func cancelled(unit report.Unit, err error) (report.Unit, error) {
	unit.Outcome = report.OutcomeSkipped
	unit.Error = "cancelled"
	return unit, err
}
