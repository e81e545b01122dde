package cli

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alecbcs/spack-infrastructure/internal/logstore"
	"github.com/alecbcs/spack-infrastructure/internal/manifest"
	"github.com/alecbcs/spack-infrastructure/internal/model"
	"github.com/alecbcs/spack-infrastructure/internal/taxonomy"
)

var (
	summaryTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	summaryMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	summaryCountStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
)

type classifyCategoryReport struct {
	Name    string `json:"name"`
	Matched int    `json:"matched"`
}

type classifyResult struct {
	Jobs       int                      `json:"jobs"`
	Kinds      map[string]int           `json:"kinds"`
	Categories []classifyCategoryReport `json:"categories"`
	Output     string                   `json:"output,omitempty"`
}

func runClassify(args []string) error {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	inputDir := fs.String("input-dir", "error_logs", "directory containing job logs")
	taxonomyPath := fs.String("taxonomy", "", "YAML taxonomy file (default: built-in signature table)")
	output := fs.String("output", "", "write the augmented manifest CSV to this path")
	workers := fs.Int("workers", 0, "parallel category evaluations (0 = one per category)")
	jsonOut := fs.Bool("json", false, "print JSON output")

	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	manifestPath := strings.TrimSpace(fs.Arg(0))
	if manifestPath == "" {
		return errors.New("classify requires the manifest CSV as its terminal argument")
	}

	table, err := classifyManifest(manifestPath, *inputDir, *taxonomyPath, *workers, !*jsonOut)
	if err != nil {
		return err
	}

	if strings.TrimSpace(*output) != "" {
		if err := writeClassificationCSV(strings.TrimSpace(*output), table); err != nil {
			return err
		}
		if !*jsonOut {
			fmt.Printf("wrote %s\n", strings.TrimSpace(*output))
		}
	}

	result := classifyResult{
		Jobs:   len(table.Rows),
		Kinds:  kindCounts(table),
		Output: strings.TrimSpace(*output),
	}
	for _, name := range table.Categories {
		result.Categories = append(result.Categories, classifyCategoryReport{
			Name:    name,
			Matched: table.MatchCount(name),
		})
	}

	if *jsonOut {
		return printJSON(result)
	}
	printClassifySummary(result)
	return nil
}

// classifyManifest runs the full pipeline for one manifest: load, open the
// store, resolve the taxonomy, classify. Shared by classify and browse.
func classifyManifest(manifestPath, inputDir, taxonomyPath string, workers int, verbose bool) (*model.ClassificationTable, error) {
	records, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	store, err := logstore.Open(inputDir)
	if err != nil {
		return nil, err
	}

	tax := taxonomy.Default()
	if strings.TrimSpace(taxonomyPath) != "" {
		tax, err = taxonomy.LoadFile(strings.TrimSpace(taxonomyPath))
		if err != nil {
			return nil, err
		}
	}

	var observer func(string, int)
	if verbose {
		observer = func(category string, matched int) {
			fmt.Printf("processing %s (%d)\n", category, matched)
		}
	}

	return taxonomy.Classify(taxonomy.ClassifyOptions{
		Records:  records,
		Store:    store,
		Taxonomy: tax,
		Workers:  workers,
		Observer: observer,
	})
}

func kindCounts(table *model.ClassificationTable) map[string]int {
	counts := make(map[string]int)
	for _, row := range table.Rows {
		counts[row.Kind]++
	}
	return counts
}

func printClassifySummary(result classifyResult) {
	fmt.Println()
	fmt.Println(summaryTitleStyle.Render("classification summary"))
	fmt.Printf("%s %s\n", summaryMutedStyle.Render("jobs:"), summaryCountStyle.Render(strconv.Itoa(result.Jobs)))
	for _, kind := range []string{model.KindNone, model.KindUO, model.KindAWS} {
		if n, ok := result.Kinds[kind]; ok {
			fmt.Printf("%s %d\n", summaryMutedStyle.Render("kind "+kind+":"), n)
		}
	}
	for _, cat := range result.Categories {
		if cat.Matched == 0 {
			continue
		}
		fmt.Printf("%s %s\n",
			summaryMutedStyle.Render(cat.Name+":"),
			summaryCountStyle.Render(strconv.Itoa(cat.Matched)))
	}
}

// writeClassificationCSV exports the manifest columns plus kind plus one
// boolean column per category, in taxonomy order.
func writeClassificationCSV(path string, table *model.ClassificationTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{}, manifest.RequiredColumns...)
	header = append(header, "kind")
	header = append(header, table.Categories...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}

	for _, row := range table.Rows {
		job := row.Job
		runner := ""
		if job.Runner != nil {
			runner = *job.Runner
		}
		record := []string{
			strconv.Itoa(job.ID),
			job.Name,
			job.CreatedAt.Format(time.RFC3339),
			job.Duration,
			runner,
			job.Stage,
			job.Ref,
			job.ProjectName,
			job.JobLink,
			job.APILink,
			row.Kind,
		}
		for _, cat := range table.Categories {
			record = append(record, strconv.FormatBool(row.Matches[cat]))
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}
