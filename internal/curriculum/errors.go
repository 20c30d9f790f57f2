package curriculum

import (
	"fmt"
	"strings"
)

// SpecificationError reports a malformed or missing curriculum entry.
// When Unit is empty the whole curriculum is invalid.
type SpecificationError struct {
	Unit     string
	Problems []string
}

func (e *SpecificationError) Error() string {
	if e.Unit != "" {
		return fmt.Sprintf("curriculum %s: %s", e.Unit, strings.Join(e.Problems, "; "))
	}
	return fmt.Sprintf("invalid curriculum:\n  - %s", strings.Join(e.Problems, "\n  - "))
}
