package cli

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testHeader = "id,name,created_at,duration,runner,stage,ref,project_name,job_link,api_link"

func writeFixture(t *testing.T) (manifestPath, logDir string) {
	t.Helper()
	tmp := t.TempDir()
	manifestPath = filepath.Join(tmp, "errors.csv")
	logDir = filepath.Join(tmp, "error_logs")

	lines := []string{
		testHeader,
		`1,build-zlib,2023-05-01T12:30:00Z,81.5,,build,develop,spack,link1,api1`,
		`2,build-mpich,2023-05-01T13:00:00Z,12.0,uo-gpu-01,build,develop,spack,link2,api2`,
	}
	if err := os.WriteFile(manifestPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(logDir, "1.log"), []byte("nothing recognizable"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(logDir, "2.log"), []byte("Killed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return manifestPath, logDir
}

func TestRunClassifyWritesAugmentedCSV(t *testing.T) {
	manifestPath, logDir := writeFixture(t)
	outPath := filepath.Join(filepath.Dir(logDir), "classified.csv")

	err := runClassify([]string{
		"--input-dir", logDir,
		"--output", outPath,
		"--json",
		manifestPath,
	})
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}

	header := rows[0]
	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("output missing column %q in %v", name, header)
		return -1
	}

	// One boolean column per category in taxonomy order, after kind.
	if header[10] != "kind" || header[11] != "no_runner" {
		t.Fatalf("unexpected header layout: %v", header[:12])
	}

	byID := map[string][]string{rows[1][0]: rows[1], rows[2][0]: rows[2]}
	row1, row2 := byID["1"], byID["2"]
	if row1 == nil || row2 == nil {
		t.Fatalf("missing expected ids in output: %v", rows[1:])
	}

	if row1[col("kind")] != "None" || row1[col("no_runner")] != "true" {
		t.Fatalf("expected runner-less job to have kind None and no_runner true, got %v", row1)
	}
	if row2[col("kind")] != "UO" || row2[col("killed")] != "true" {
		t.Fatalf("expected uo job with killed true, got %v", row2)
	}
	if row1[col("killed")] != "false" {
		t.Fatalf("expected killed false for job 1, got %v", row1)
	}
}

func TestRunClassifyFailsOnMissingArtifacts(t *testing.T) {
	manifestPath, logDir := writeFixture(t)
	if err := os.Remove(filepath.Join(logDir, "2.log")); err != nil {
		t.Fatal(err)
	}

	err := runClassify([]string{"--input-dir", logDir, "--json", manifestPath})
	if err == nil || !strings.Contains(err.Error(), "2.log") {
		t.Fatalf("expected integrity failure naming 2.log, got %v", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if err := Run([]string{"frobnicate"}); err == nil {
		t.Fatalf("expected error for unknown command")
	}
}
