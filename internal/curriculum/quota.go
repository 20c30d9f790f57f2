package curriculum

// Drill quotas per difficulty level.
const (
	DrillPerDifficulty        = 10
	WritingDrillPerDifficulty = 2
)

// Quota is the expected question count for one (mode, difficulty) bucket
// of a unit.
type Quota struct {
	Mode       Mode
	Difficulty int
	Count      int
}

// ExpectedCounts returns the expected count of every bucket of the unit,
// ordered by mode then difficulty. Buckets with a zero target are omitted.
func ExpectedCounts(u UnitSpec) []Quota {
	var out []Quota
	for _, m := range u.Section.Modes() {
		for _, q := range modeQuotas(u, m) {
			if q.Count > 0 {
				out = append(out, q)
			}
		}
	}
	return out
}

// Expected returns the expected count for a single bucket.
func Expected(u UnitSpec, mode Mode, difficulty int) int {
	for _, q := range modeQuotas(u, mode) {
		if q.Difficulty == difficulty {
			return q.Count
		}
	}
	return 0
}

func modeQuotas(u UnitSpec, mode Mode) []Quota {
	levels := u.Difficulties()
	if len(levels) == 0 {
		return nil
	}
	tc := u.SubSkill.TargetCounts

	switch {
	case mode == ModeDiagnostic:
		total := len(levels)
		if tc.Diagnostic != nil {
			total = *tc.Diagnostic
		}
		// Passage-anchored difficulty belongs to the passage, so every
		// diagnostic question counts under one nominal level.
		if u.RequiresPassage() {
			return []Quota{{Mode: mode, Difficulty: NominalPassageDifficulty, Count: total}}
		}
		return spread(mode, levels, total)

	case mode.IsPractice():
		if mode.PracticeIndex() > u.Section.PracticeTests {
			return nil
		}
		total := split(u.Section.PracticeQuestions, len(u.Section.SubSkills))[u.index]
		if tc.Practice != nil {
			total = *tc.Practice
		}
		return spread(mode, levels, total)

	case mode == ModeDrill:
		per := DrillPerDifficulty
		if u.IsWriting() {
			per = WritingDrillPerDifficulty
		}
		if tc.Drill != nil {
			return spread(mode, levels, *tc.Drill)
		}
		out := make([]Quota, len(levels))
		for i, d := range levels {
			out[i] = Quota{Mode: mode, Difficulty: d, Count: per}
		}
		return out
	}
	return nil
}

// spread distributes total across levels, remainder to lower levels first.
func spread(mode Mode, levels []int, total int) []Quota {
	counts := split(total, len(levels))
	out := make([]Quota, len(levels))
	for i, d := range levels {
		out[i] = Quota{Mode: mode, Difficulty: d, Count: counts[i]}
	}
	return out
}

// split divides total into n near-equal parts, giving the remainder to the
// earliest parts.
func split(total, n int) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, n)
	base, rem := total/n, total%n
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}
