package gaps

import (
	"testing"

	"github.com/abhisek/prepgen/internal/curriculum"
	"github.com/abhisek/prepgen/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
version: "1.0.0"
products:
  - name: exam
    sections:
      - name: verbal
        category: verbal
        option_count: 5
        practice_questions: 6
        practice_tests: 1
        sub_skills:
          - name: synonyms
            difficulty_range: [1, 2, 3]
          - name: analogies
            difficulty_range: [1, 2, 3]
      - name: writing
        category: writing
        practice_questions: 1
        practice_tests: 1
        sub_skills:
          - name: persuasive
            difficulty_range: [1, 2, 3]
`

func loadCurriculum(t *testing.T, src string) *curriculum.Curriculum {
	t.Helper()
	c, err := curriculum.Parse([]byte(src))
	require.NoError(t, err)
	return c
}

func bucket(section, sub string, d int, mode string) store.Bucket {
	return store.Bucket{Product: "exam", Section: section, SubSkill: sub, Difficulty: d, Mode: mode}
}

// fullInventory returns an inventory that satisfies every bucket.
func fullInventory(c *curriculum.Curriculum) map[store.Bucket]int {
	inv := make(map[store.Bucket]int)
	for _, u := range c.Units() {
		for _, q := range curriculum.ExpectedCounts(u) {
			inv[store.Bucket{Product: u.Product, Section: u.Section.Name, SubSkill: u.SubSkill.Name, Difficulty: q.Difficulty, Mode: string(q.Mode)}] = q.Count
		}
	}
	return inv
}

func TestAnalyze_EmptyInventory(t *testing.T) {
	c := loadCurriculum(t, testYAML)
	plan := Analyze(c, nil, Filter{})

	// verbal per sub-skill: diagnostic 3 + practice 3 + drill 30 = 36
	// writing: diagnostic 3 + practice 1 + drill 6 = 10
	assert.Equal(t, 36*2+10, plan.TotalDeficit())
	assert.Empty(t, plan.Surpluses)
	assert.Zero(t, plan.Satisfied)

	var writingDrill int
	for _, task := range plan.Tasks {
		if task.Unit.IsWriting() && task.Mode == curriculum.ModeDrill {
			writingDrill += task.Deficit
		}
	}
	assert.Equal(t, 6, writingDrill, "writing drill is 2 per difficulty")
}

func TestAnalyze_PartialBucket(t *testing.T) {
	c := loadCurriculum(t, testYAML)
	inv := fullInventory(c)
	inv[bucket("verbal", "synonyms", 1, "drill")] = 7

	plan := Analyze(c, inv, Filter{})
	require.Len(t, plan.Tasks, 1)
	task := plan.Tasks[0]
	assert.Equal(t, 3, task.Deficit)
	assert.Equal(t, 10, task.Expected)
	assert.Equal(t, 7, task.Actual)
	assert.Equal(t, "exam/verbal/synonyms/drill/d1", task.Key())
}

func TestAnalyze_SatisfiedIsIdempotent(t *testing.T) {
	c := loadCurriculum(t, testYAML)
	plan := Analyze(c, fullInventory(c), Filter{})
	assert.Empty(t, plan.Tasks)
	assert.Zero(t, plan.TotalDeficit())
	assert.Positive(t, plan.Satisfied)
}

func TestAnalyze_Surpluses(t *testing.T) {
	c := loadCurriculum(t, testYAML)
	inv := fullInventory(c)
	inv[bucket("verbal", "synonyms", 2, "drill")] = 12
	inv[bucket("verbal", "retired", 1, "drill")] = 4
	inv[bucket("verbal", "synonyms", 1, "practice_4")] = 1

	plan := Analyze(c, inv, Filter{})
	assert.Empty(t, plan.Tasks)
	require.Len(t, plan.Surpluses, 3)

	byBucket := make(map[store.Bucket]Surplus)
	for _, s := range plan.Surpluses {
		byBucket[s.Bucket] = s
	}
	over := byBucket[bucket("verbal", "synonyms", 2, "drill")]
	assert.Equal(t, 2, over.Excess())
	assert.False(t, over.Orphan)
	assert.True(t, byBucket[bucket("verbal", "retired", 1, "drill")].Orphan)
	assert.True(t, byBucket[bucket("verbal", "synonyms", 1, "practice_4")].Orphan)
}

func TestAnalyze_Ordering(t *testing.T) {
	c := loadCurriculum(t, testYAML)
	plan := Analyze(c, nil, Filter{Section: "verbal"})

	for i := 1; i < len(plan.Tasks); i++ {
		a, b := plan.Tasks[i-1], plan.Tasks[i]
		if a.Unit.SubSkill.Name == b.Unit.SubSkill.Name && a.Difficulty == b.Difficulty {
			assert.Less(t, a.Mode.Order(), b.Mode.Order(), "mode order within a bucket key")
		}
	}
	assert.Equal(t, "analogies", plan.Tasks[0].Unit.SubSkill.Name, "sub-skills sorted by name")
	assert.Equal(t, 1, plan.Tasks[0].Difficulty)
	assert.Equal(t, curriculum.ModeDiagnostic, plan.Tasks[0].Mode)
}

func TestAnalyze_Filter(t *testing.T) {
	c := loadCurriculum(t, testYAML)

	plan := Analyze(c, nil, Filter{Section: "writing", Modes: []curriculum.Mode{curriculum.ModeDrill}})
	assert.Equal(t, 6, plan.TotalDeficit())
	assert.Empty(t, plan.Skipped)
	for _, task := range plan.Tasks {
		assert.Equal(t, curriculum.ModeDrill, task.Mode)
	}

	missing := Analyze(c, nil, Filter{Product: "exam", Section: "science"})
	assert.Empty(t, missing.Tasks)
	require.Len(t, missing.Skipped, 1)
	assert.Equal(t, "exam/science", missing.Skipped[0].Unit)
}

func TestPlan_BySection(t *testing.T) {
	c := loadCurriculum(t, testYAML)
	sections := Analyze(c, nil, Filter{}).BySection()
	require.Len(t, sections, 2)
	assert.Equal(t, "exam/verbal", sections[0].Name())
	assert.Equal(t, 72, sections[0].Deficit())
	assert.Equal(t, "exam/writing", sections[1].Name())
	assert.Equal(t, 10, sections[1].Deficit())
}
