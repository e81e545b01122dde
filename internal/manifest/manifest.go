package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alecbcs/spack-infrastructure/internal/model"
)

// RequiredColumns is the set of columns a failed-jobs CSV must carry. Extra
// columns are tolerated and ignored.
var RequiredColumns = []string{
	"id", "name", "created_at", "duration", "runner",
	"stage", "ref", "project_name", "job_link", "api_link",
}

// Timestamp layouts accepted for created_at, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05.000 -0700",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
}

// SchemaError reports every required column missing from the CSV header.
type SchemaError struct {
	Path    string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("manifest %s does not contain the following columns: %s",
		e.Path, strings.Join(e.Missing, ", "))
}

// FormatError reports a cell whose content could not be parsed into its
// structured type.
type FormatError struct {
	Path   string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("manifest %s line %d: column %q: cannot parse %q: %v",
		e.Path, e.Line, e.Column, e.Value, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Load parses a failed-jobs CSV into job records keyed by id. The header is
// validated against RequiredColumns before any row is read; ids must be
// unique; created_at must parse as a timestamp.
func Load(path string) ([]model.JobRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads CSV content from r. The path is used for diagnostics only.
func Parse(r io.Reader, path string) ([]model.JobRecord, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read manifest header %s: %w", path, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	missing := make([]string, 0)
	for _, name := range RequiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &SchemaError{Path: path, Missing: missing}
	}

	records := make([]model.JobRecord, 0)
	seen := make(map[int]int)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest %s: %w", path, err)
		}
		line++

		cell := func(name string) string { return strings.TrimSpace(row[index[name]]) }

		id, err := strconv.Atoi(cell("id"))
		if err != nil {
			return nil, &FormatError{Path: path, Line: line, Column: "id", Value: cell("id"), Err: err}
		}
		if prev, ok := seen[id]; ok {
			return nil, fmt.Errorf("manifest %s line %d: duplicate job id %d (first seen on line %d)", path, line, id, prev)
		}
		seen[id] = line

		createdAt, err := parseTimestamp(cell("created_at"))
		if err != nil {
			return nil, &FormatError{Path: path, Line: line, Column: "created_at", Value: cell("created_at"), Err: err}
		}

		rec := model.JobRecord{
			ID:          id,
			Name:        cell("name"),
			CreatedAt:   createdAt,
			Duration:    cell("duration"),
			Stage:       cell("stage"),
			Ref:         cell("ref"),
			ProjectName: cell("project_name"),
			JobLink:     cell("job_link"),
			APILink:     cell("api_link"),
		}
		if runner := cell("runner"); runner != "" {
			rec.Runner = &runner
		}
		records = append(records, rec)
	}
	return records, nil
}

// IDs returns the manifest id set in record order.
func IDs(records []model.JobRecord) []int {
	ids := make([]int, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	return ids
}

func parseTimestamp(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, raw)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
