package passage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/prepgen/internal/curriculum"
	"github.com/abhisek/prepgen/internal/llm"
	"github.com/abhisek/prepgen/internal/problemgen"
	"github.com/abhisek/prepgen/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func readingUnit(share bool) curriculum.UnitSpec {
	return curriculum.UnitSpec{
		Product: "selective-entry",
		Section: &curriculum.Section{
			Name:              "Reading Comprehension",
			Category:          curriculum.CategoryReading,
			OptionCount:       4,
			PracticeQuestions: 20,
			PracticeTests:     2,
			Passage: &curriculum.PassagePolicy{
				QuestionsPerPassage:      2,
				WordCount:                100,
				DrillQuestionsPerPassage: 1,
				DrillWordCount:           40,
				ShareDiagnosticPractice:  share,
			},
		},
		SubSkill: &curriculum.SubSkill{Name: "Main Idea", DifficultyRange: []int{1, 2, 3}},
	}
}

func passageJSON(title string, words int) llm.MockResponse {
	content := strings.TrimSpace(strings.Repeat("word ", words))
	raw, _ := json.Marshal(map[string]string{"title": title, "content": content})
	return llm.MockResponse{Content: raw}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Backoff = llm.BackoffConfig{InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 1}
	return cfg
}

func attach(t *testing.T, s *store.Store, p *store.Passage, text string) error {
	t.Helper()
	return s.QuestionRepo().Insert(context.Background(), &store.Question{
		Product: p.Product, Section: p.Section, SubSkill: "Main Idea",
		Difficulty: p.Difficulty, Mode: p.Mode, Text: text,
		Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a", Solution: "s",
		PassageID: p.ID,
	})
}

func TestAcquire_CreateReuseAndRotate(t *testing.T) {
	s := openStore(t)
	mock := llm.NewMockProvider(passageJSON("The Lighthouse", 100), passageJSON("The Orchard", 110))
	m := NewManager(s.PassageRepo(), mock, testConfig(), nil)
	ctx := context.Background()
	req := Request{Unit: readingUnit(false), Mode: curriculum.PracticeMode(1), Difficulty: 2}

	first, err := m.Acquire(ctx, req)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, 2, first.Passage.Capacity)
	assert.Equal(t, 0, first.Passage.Attached)
	assert.Equal(t, 100, first.Passage.WordCount)
	assert.Equal(t, "practice_1", first.Passage.Mode)
	assert.Equal(t, PassageSchema, mock.Calls[0].Schema)
	require.NoError(t, attach(t, s, first.Passage, "What is the main idea?"))

	again, err := m.Acquire(ctx, req)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, first.Passage.ID, again.Passage.ID)
	assert.Equal(t, []string{"What is the main idea?"}, again.Questions)
	assert.Equal(t, 1, mock.CallCount(), "reuse must not call the model")
	require.NoError(t, attach(t, s, again.Passage, "Which title fits best?"))

	// Full passages are never handed out again.
	assert.ErrorIs(t, attach(t, s, again.Passage, "One too many?"), store.ErrPassageFull)

	next, err := m.Acquire(ctx, req)
	require.NoError(t, err)
	assert.True(t, next.Created)
	assert.NotEqual(t, first.Passage.ID, next.Passage.ID)
	assert.Equal(t, "The Orchard", next.Passage.Title)

	ctxPassage := next.Context()
	assert.Equal(t, next.Passage.ID, ctxPassage.ID)
	assert.Empty(t, ctxPassage.Questions)
}

func TestAcquire_DrillNeverShared(t *testing.T) {
	s := openStore(t)
	mock := llm.NewMockProvider(passageJSON("Practice", 100), passageJSON("Drill", 40))
	m := NewManager(s.PassageRepo(), mock, testConfig(), nil)
	ctx := context.Background()
	u := readingUnit(true)

	practice, err := m.Acquire(ctx, Request{Unit: u, Mode: curriculum.PracticeMode(1), Difficulty: 2})
	require.NoError(t, err)

	drill, err := m.Acquire(ctx, Request{Unit: u, Mode: curriculum.ModeDrill, Difficulty: 2})
	require.NoError(t, err)
	assert.True(t, drill.Created)
	assert.NotEqual(t, practice.Passage.ID, drill.Passage.ID)
	assert.Equal(t, 1, drill.Passage.Capacity)
	assert.Contains(t, mock.Calls[1].Messages[0].Content, "about 40 words")
}

func TestAcquire_DiagnosticPracticeSharing(t *testing.T) {
	tests := []struct {
		share      bool
		wantShared bool
	}{
		{share: true, wantShared: true},
		{share: false, wantShared: false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("share=%t", tt.share), func(t *testing.T) {
			s := openStore(t)
			mock := llm.NewMockProvider(passageJSON("A", 100), passageJSON("B", 100))
			m := NewManager(s.PassageRepo(), mock, testConfig(), nil)
			ctx := context.Background()
			u := readingUnit(tt.share)

			diag, err := m.Acquire(ctx, Request{Unit: u, Mode: curriculum.ModeDiagnostic, Difficulty: 2})
			require.NoError(t, err)
			prac, err := m.Acquire(ctx, Request{Unit: u, Mode: curriculum.PracticeMode(2), Difficulty: 2})
			require.NoError(t, err)

			assert.Equal(t, tt.wantShared, diag.Passage.ID == prac.Passage.ID)
		})
	}
}

func TestAcquire_RetriesAndExhausts(t *testing.T) {
	s := openStore(t)
	mock := llm.NewMockProvider(
		passageJSON("Too Short", 10),
		llm.MockResponse{Content: json.RawMessage(`{"title":"T","content":"Wait, let me rewrite this opening."}`)},
		llm.MockResponse{Content: json.RawMessage(`not json at all`)},
	)
	m := NewManager(s.PassageRepo(), mock, testConfig(), nil)

	_, err := m.Acquire(context.Background(), Request{Unit: readingUnit(false), Mode: curriculum.ModeDiagnostic, Difficulty: 2})
	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr), "expected GenerationError, got %v", err)
	assert.Equal(t, 3, genErr.Attempts)
	assert.Equal(t, 3, mock.CallCount())

	second := mock.Calls[1].Messages[0].Content
	assert.Contains(t, second, "Attempt 1 was rejected (structural_invalid: passage has 10 words, want 60-140)")
	third := mock.Calls[2].Messages[0].Content
	assert.Contains(t, third, "Attempt 2 was rejected (hallucination_pattern")

	n, err := s.PassageRepo().FindAvailable(context.Background(), store.PassageQuery{
		Product: "selective-entry", Section: "Reading Comprehension", Difficulty: 2, Modes: []string{"diagnostic"},
	})
	require.NoError(t, err)
	assert.Nil(t, n, "no passage persisted")
}

func TestAcquire_TransportErrorThenSuccess(t *testing.T) {
	s := openStore(t)
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrRateLimit{RetryAfter: time.Millisecond}},
		passageJSON("Recovered", 95),
	)
	m := NewManager(s.PassageRepo(), mock, testConfig(), nil)

	lease, err := m.Acquire(context.Background(), Request{Unit: readingUnit(false), Mode: curriculum.ModeDiagnostic, Difficulty: 2})
	require.NoError(t, err)
	assert.Equal(t, "Recovered", lease.Passage.Title)
	assert.NotContains(t, mock.Calls[1].Messages[0].Content, "rejected", "transport failures are not content feedback")
}

func TestAcquire_NoPassagePolicy(t *testing.T) {
	s := openStore(t)
	u := readingUnit(false)
	u.Section.Passage = nil
	m := NewManager(s.PassageRepo(), llm.NewMockProvider(), testConfig(), nil)
	_, err := m.Acquire(context.Background(), Request{Unit: u, Mode: curriculum.ModeDrill, Difficulty: 1})
	require.Error(t, err)
}

func TestShareModes(t *testing.T) {
	assert.Equal(t, []string{"drill"}, ShareModes(readingUnit(true), curriculum.ModeDrill))
	assert.Equal(t, []string{"practice_1"}, ShareModes(readingUnit(false), curriculum.PracticeMode(1)))
	assert.Equal(t, []string{"diagnostic", "practice_1", "practice_2"}, ShareModes(readingUnit(true), curriculum.PracticeMode(1)))
}

func TestRejectedAttempt(t *testing.T) {
	a := rejected(2, "raw", &problemgen.ValidationError{Reason: problemgen.ReasonHallucination, Message: "oops"})
	assert.Equal(t, problemgen.ReasonHallucination, a.Reason)
	assert.Equal(t, "oops", a.Detail)
	assert.Equal(t, 2, a.Number)
}
