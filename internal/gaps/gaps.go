// Package gaps diffs the question bank against the curriculum and plans
// the generation work of a gap-fill run.
package gaps

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/abhisek/prepgen/internal/curriculum"
	"github.com/abhisek/prepgen/internal/store"
)

// Task is the deficit of one (product, section, sub-skill, difficulty,
// mode) bucket.
type Task struct {
	Unit       curriculum.UnitSpec
	Difficulty int
	Mode       curriculum.Mode

	Expected int
	Actual   int
	Deficit  int
}

// Key returns a stable label for logs and reports.
func (t Task) Key() string {
	return fmt.Sprintf("%s/%s/d%d", t.Unit.Key(), t.Mode, t.Difficulty)
}

// Bucket returns the inventory bucket the task fills.
func (t Task) Bucket() store.Bucket {
	return store.Bucket{
		Product:    t.Unit.Product,
		Section:    t.Unit.Section.Name,
		SubSkill:   t.Unit.SubSkill.Name,
		Difficulty: t.Difficulty,
		Mode:       string(t.Mode),
	}
}

// Surplus is a bucket holding more questions than the curriculum expects.
// Surpluses are reported, never deleted.
type Surplus struct {
	Bucket   store.Bucket
	Expected int
	Actual   int

	// Orphan is set when the curriculum expects nothing in the bucket:
	// an unknown unit, mode or difficulty.
	Orphan bool
}

// Excess returns how many questions are over target.
func (s Surplus) Excess() int { return s.Actual - s.Expected }

// Filter restricts a plan to part of the curriculum. Zero values match
// everything.
type Filter struct {
	Product  string
	Section  string
	SubSkill string
	Modes    []curriculum.Mode
}

func (f Filter) matchUnit(product, section, subSkill string) bool {
	return (f.Product == "" || f.Product == product) &&
		(f.Section == "" || f.Section == section) &&
		(f.SubSkill == "" || f.SubSkill == subSkill)
}

func (f Filter) matchMode(m curriculum.Mode) bool {
	return len(f.Modes) == 0 || slices.Contains(f.Modes, m)
}

// Plan is the ordered generation work of a run.
type Plan struct {
	Tasks     []Task
	Surpluses []Surplus

	// Satisfied counts buckets already at target.
	Satisfied int

	// Skipped lists filter targets missing from the curriculum.
	Skipped []*curriculum.SpecificationError
}

// TotalDeficit returns the number of questions the plan needs.
func (p *Plan) TotalDeficit() int {
	n := 0
	for _, t := range p.Tasks {
		n += t.Deficit
	}
	return n
}

// SectionPlan is the slice of a plan belonging to one section.
type SectionPlan struct {
	Product string
	Section string
	Tasks   []Task
}

// Name returns "product/section".
func (s SectionPlan) Name() string { return s.Product + "/" + s.Section }

// Deficit returns the number of questions the section needs.
func (s SectionPlan) Deficit() int {
	n := 0
	for _, t := range s.Tasks {
		n += t.Deficit
	}
	return n
}

// BySection groups tasks by section, preserving task order.
func (p *Plan) BySection() []SectionPlan {
	var out []SectionPlan
	for _, t := range p.Tasks {
		if n := len(out); n > 0 && out[n-1].Product == t.Unit.Product && out[n-1].Section == t.Unit.Section.Name {
			out[n-1].Tasks = append(out[n-1].Tasks, t)
			continue
		}
		out = append(out, SectionPlan{Product: t.Unit.Product, Section: t.Unit.Section.Name, Tasks: []Task{t}})
	}
	return out
}

// Analyze computes deficits and surpluses for every bucket that matches f.
func Analyze(cur *curriculum.Curriculum, inventory map[store.Bucket]int, f Filter) *Plan {
	plan := &Plan{}
	plan.Skipped = missingTargets(cur, f)

	expected := make(map[store.Bucket]bool)
	for _, u := range cur.Units() {
		if !f.matchUnit(u.Product, u.Section.Name, u.SubSkill.Name) {
			continue
		}
		for _, q := range curriculum.ExpectedCounts(u) {
			if !f.matchMode(q.Mode) {
				continue
			}
			t := Task{Unit: u, Difficulty: q.Difficulty, Mode: q.Mode, Expected: q.Count}
			b := t.Bucket()
			expected[b] = true
			t.Actual = inventory[b]

			switch {
			case t.Actual < t.Expected:
				t.Deficit = t.Expected - t.Actual
				plan.Tasks = append(plan.Tasks, t)
			case t.Actual > t.Expected:
				plan.Surpluses = append(plan.Surpluses, Surplus{Bucket: b, Expected: t.Expected, Actual: t.Actual})
			default:
				plan.Satisfied++
			}
		}
	}

	for b, n := range inventory {
		if n == 0 || expected[b] {
			continue
		}
		if !f.matchUnit(b.Product, b.Section, b.SubSkill) || !f.matchMode(curriculum.Mode(b.Mode)) {
			continue
		}
		plan.Surpluses = append(plan.Surpluses, Surplus{Bucket: b, Actual: n, Orphan: true})
	}

	sort.SliceStable(plan.Tasks, func(i, j int) bool {
		a, b := plan.Tasks[i], plan.Tasks[j]
		if c := compareUnit(a.Unit, b.Unit); c != 0 {
			return c < 0
		}
		if a.Difficulty != b.Difficulty {
			return a.Difficulty < b.Difficulty
		}
		return a.Mode.Order() < b.Mode.Order()
	})
	sort.SliceStable(plan.Surpluses, func(i, j int) bool {
		return bucketLess(plan.Surpluses[i].Bucket, plan.Surpluses[j].Bucket)
	})
	return plan
}

func compareUnit(a, b curriculum.UnitSpec) int {
	if c := strings.Compare(a.Product, b.Product); c != 0 {
		return c
	}
	if c := strings.Compare(a.Section.Name, b.Section.Name); c != 0 {
		return c
	}
	return strings.Compare(a.SubSkill.Name, b.SubSkill.Name)
}

func bucketLess(a, b store.Bucket) bool {
	switch {
	case a.Product != b.Product:
		return a.Product < b.Product
	case a.Section != b.Section:
		return a.Section < b.Section
	case a.SubSkill != b.SubSkill:
		return a.SubSkill < b.SubSkill
	case a.Difficulty != b.Difficulty:
		return a.Difficulty < b.Difficulty
	default:
		return curriculum.Mode(a.Mode).Order() < curriculum.Mode(b.Mode).Order()
	}
}

// missingTargets reports filter values that name nothing in the curriculum.
func missingTargets(cur *curriculum.Curriculum, f Filter) []*curriculum.SpecificationError {
	if f.Product == "" && f.Section == "" && f.SubSkill == "" {
		return nil
	}
	for _, u := range cur.Units() {
		if f.matchUnit(u.Product, u.Section.Name, u.SubSkill.Name) {
			return nil
		}
	}
	label := strings.Trim(strings.Join([]string{f.Product, f.Section, f.SubSkill}, "/"), "/")
	return []*curriculum.SpecificationError{{Unit: label, Problems: []string{"no curriculum entry"}}}
}
