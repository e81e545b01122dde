package model

import (
	"strings"
	"time"
)

// Runner kind buckets derived from the runner description.
const (
	KindNone = "None"
	KindUO   = "UO"
	KindAWS  = "AWS"
)

// Runners on University of Oregon hardware are named with this prefix;
// every other scheduled runner is AWS capacity.
const uoRunnerPrefix = "uo"

// JobRecord is one row of the failed-jobs manifest. ID is the GitLab job id
// and is unique within a manifest.
type JobRecord struct {
	ID          int
	Name        string
	CreatedAt   time.Time
	Duration    string
	Runner      *string
	Stage       string
	Ref         string
	ProjectName string
	JobLink     string
	APILink     string
}

// Kind buckets the job by where it ran. A job with no runner was never
// scheduled.
func (j JobRecord) Kind() string {
	if j.Runner == nil {
		return KindNone
	}
	if strings.HasPrefix(*j.Runner, uoRunnerPrefix) {
		return KindUO
	}
	return KindAWS
}

// ClassificationRow is one manifest row plus its derived columns. Matches
// holds one boolean per taxonomy category; a row may match several categories
// or none.
type ClassificationRow struct {
	Job     JobRecord
	Kind    string
	Matches map[string]bool
}

// ClassificationTable is the result of one classification run. Categories
// preserves taxonomy order so tabular exports are stable.
type ClassificationTable struct {
	Categories []string
	Rows       []ClassificationRow
}

// MatchCount returns how many rows matched the category.
func (t *ClassificationTable) MatchCount(category string) int {
	n := 0
	for _, row := range t.Rows {
		if row.Matches[category] {
			n++
		}
	}
	return n
}
