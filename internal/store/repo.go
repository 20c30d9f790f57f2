package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

var (
	// ErrDuplicate is returned when a question with the same normalized
	// text already exists for its (product, section, sub-skill).
	ErrDuplicate = errors.New("duplicate question")

	// ErrPassageFull is returned when attaching a question would exceed
	// the passage's capacity.
	ErrPassageFull = errors.New("passage at capacity")

	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
)

// Question is a persisted, validated exam question. Never mutated after
// insert.
type Question struct {
	ID            string
	Product       string
	Section       string
	SubSkill      string
	Difficulty    int
	Mode          string
	Text          string
	Options       []string
	CorrectAnswer string
	Solution      string
	Rubric        string
	PassageID     string // empty when the question has no passage
	CreatedAt     time.Time
}

// Bucket groups questions for quota accounting.
type Bucket struct {
	Product    string
	Section    string
	SubSkill   string
	Difficulty int
	Mode       string
}

// PriorQuery selects existing questions for duplicate checks and prompts.
type PriorQuery struct {
	Product  string
	Section  string
	SubSkill string

	// Mode restricts the search to one mode. Empty searches all modes.
	Mode string

	// PassageID restricts the search to questions on one passage.
	PassageID string

	// Limit caps the result size, newest first. Zero means no limit.
	Limit int
}

// QuestionRepo persists questions.
type QuestionRepo interface {
	// Insert stores q in a single transaction: final exact-duplicate check,
	// passage attachment (if any), insert. Returns ErrDuplicate or
	// ErrPassageFull without writing anything. Assigns ID and CreatedAt.
	Insert(ctx context.Context, q *Question) error

	// Inventory returns the question count per bucket.
	Inventory(ctx context.Context) (map[Bucket]int, error)

	// Count returns the question count of one bucket.
	Count(ctx context.Context, b Bucket) (int, error)

	// Priors returns existing questions matching the query, newest first.
	Priors(ctx context.Context, q PriorQuery) ([]Question, error)
}

// Passage is a shared reading stimulus.
type Passage struct {
	ID         string
	Product    string
	Section    string
	Mode       string
	Title      string
	Content    string
	WordCount  int
	Difficulty int
	Capacity   int
	Attached   int
	CreatedAt  time.Time
}

// Remaining returns how many more questions the passage can take.
func (p *Passage) Remaining() int {
	return p.Capacity - p.Attached
}

// PassageQuery selects passages that can take another question.
type PassageQuery struct {
	Product    string
	Section    string
	Difficulty int
	Modes      []string
}

// PassageRepo persists passages.
type PassageRepo interface {
	// Create stores a new passage with no attached questions.
	Create(ctx context.Context, p *Passage) error

	// FindAvailable returns the oldest passage matching q with remaining
	// capacity, or nil if there is none.
	FindAvailable(ctx context.Context, q PassageQuery) (*Passage, error)

	// Get returns a passage by ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Passage, error)

	// QuestionTexts returns the text of every question attached to the
	// passage, oldest first.
	QuestionTexts(ctx context.Context, id string) ([]string, error)
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	Purpose string // exact match when set
	RunID   string // exact match when set
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	RunID        string
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a recorded LLM request.
type LLMEvent struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates token usage for one purpose or model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo records and queries LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// LLMUsageByPurpose aggregates usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)

	// LLMUsageByModel aggregates usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}

// NormalizeText trims, case-folds and collapses whitespace.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ContentKey returns the exact-duplicate key of a question text.
func ContentKey(text string) string {
	sum := sha256.Sum256([]byte(NormalizeText(text)))
	return hex.EncodeToString(sum[:])
}
