package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validHeader = "id,name,created_at,duration,runner,stage,ref,project_name,job_link,api_link"

func writeManifest(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "errors.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadParsesRecords(t *testing.T) {
	path := writeManifest(t,
		validHeader,
		`100,build-zlib,2023-05-01 12:30:00 +0000,81.5,uo-gpu-01,build,develop,spack,https://gitlab.spack.io/j/100,https://gitlab.spack.io/api/v4/projects/2/jobs/100/trace`,
		`101,build-mpich,2023-05-01T13:00:00Z,12.0,,generate,develop,spack,https://gitlab.spack.io/j/101,https://gitlab.spack.io/api/v4/projects/2/jobs/101/trace`,
	)

	records, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.ID != 100 || first.Name != "build-zlib" || first.Stage != "build" {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if first.Runner == nil || *first.Runner != "uo-gpu-01" {
		t.Fatalf("expected runner uo-gpu-01, got %v", first.Runner)
	}
	if first.CreatedAt.IsZero() {
		t.Fatalf("expected parsed created_at, got zero time")
	}

	second := records[1]
	if second.Runner != nil {
		t.Fatalf("expected empty runner cell to parse as absent, got %q", *second.Runner)
	}
	if got := IDs(records); got[0] != 100 || got[1] != 101 {
		t.Fatalf("unexpected id set: %v", got)
	}
}

func TestLoadMissingColumnsListsEveryName(t *testing.T) {
	path := writeManifest(t,
		"id,name,created_at,duration,stage,ref,job_link",
		"100,build-zlib,2023-05-01T12:30:00Z,81.5,build,develop,https://gitlab.spack.io/j/100",
	)

	_, err := Load(path)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	want := []string{"api_link", "project_name", "runner"}
	if len(schemaErr.Missing) != len(want) {
		t.Fatalf("expected missing %v, got %v", want, schemaErr.Missing)
	}
	for i, name := range want {
		if schemaErr.Missing[i] != name {
			t.Fatalf("expected missing %v, got %v", want, schemaErr.Missing)
		}
	}
}

func TestLoadBadTimestampIsFormatError(t *testing.T) {
	path := writeManifest(t,
		validHeader,
		`100,build-zlib,yesterday,81.5,uo-gpu-01,build,develop,spack,link,api`,
	)

	_, err := Load(path)
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if formatErr.Column != "created_at" || formatErr.Value != "yesterday" {
		t.Fatalf("unexpected format error detail: %+v", formatErr)
	}
}

func TestLoadBadIDIsFormatError(t *testing.T) {
	path := writeManifest(t,
		validHeader,
		`abc,build-zlib,2023-05-01T12:30:00Z,81.5,,build,develop,spack,link,api`,
	)

	_, err := Load(path)
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if formatErr.Column != "id" {
		t.Fatalf("expected id column in error, got %+v", formatErr)
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	path := writeManifest(t,
		validHeader,
		`100,a,2023-05-01T12:30:00Z,1,,build,develop,spack,link,api`,
		`100,b,2023-05-01T12:31:00Z,1,,build,develop,spack,link,api`,
	)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "duplicate job id 100") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}
