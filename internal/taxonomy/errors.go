package taxonomy

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SchemaError reports problems in a taxonomy definition: duplicate or empty
// category names, unknown predicates, entries with no rule.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid taxonomy: %s", strings.Join(e.Problems, "; "))
}

// IntegrityError means the artifact store and the manifest disagree about
// which job ids exist. Classification never proceeds past it; both sides of
// the symmetric difference are enumerated in full so a failed run can be
// triaged without rerunning.
type IntegrityError struct {
	Dir     string
	Orphans []int
	Missing []int
}

func (e *IntegrityError) Error() string {
	var b strings.Builder
	b.WriteString("manifest and log directory disagree")
	if len(e.Orphans) > 0 {
		b.WriteString("\nlog files present which are not in the manifest:")
		for _, id := range e.Orphans {
			b.WriteString("\n  " + e.path(id))
		}
	}
	if len(e.Missing) > 0 {
		b.WriteString("\nmanifest jobs without log files (the following are missing):")
		for _, id := range e.Missing {
			b.WriteString("\n  " + e.path(id))
		}
		b.WriteString("\ntry running get-logs on the manifest first")
	}
	return b.String()
}

func (e *IntegrityError) path(id int) string {
	return filepath.Join(e.Dir, fmt.Sprintf("%d.log", id))
}
