package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/alecbcs/spack-infrastructure/internal/manifest"
	"github.com/alecbcs/spack-infrastructure/internal/scrape"
)

const tokenEnvVar = "API_TOKEN"

func runGetLogs(args []string) error {
	fs := flag.NewFlagSet("get-logs", flag.ContinueOnError)
	output := fs.String("output", "error_logs", "output directory for job logs")
	token := fs.String("token", "", "GitLab API token (default: "+tokenEnvVar+" env var)")
	cache := fs.String("cache", "error_log", "request cache session name")
	cacheDir := fs.String("cache-dir", ".", "directory holding request cache sessions")
	workers := fs.Int("workers", 5, "number of parallel fetch workers")
	limit := fs.Int("limit", 0, "max records to fetch this invocation (0 = all)")
	jsonOut := fs.Bool("json", false, "print JSON output")

	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	manifestPath := strings.TrimSpace(fs.Arg(0))
	if manifestPath == "" {
		return errors.New("get-logs requires the manifest CSV as its terminal argument")
	}

	resolvedToken, err := resolveToken(*token)
	if err != nil {
		return err
	}

	records, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}

	if !*jsonOut {
		fmt.Printf("get-logs: fetching %d job trace(s) into %s\n", len(records), *output)
	}
	res, err := scrape.Run(records, scrape.RunOptions{
		Token:    resolvedToken,
		LogDir:   *output,
		CacheDir: filepath.Join(strings.TrimSpace(*cacheDir), strings.TrimSpace(*cache)),
		Workers:  *workers,
		Limit:    *limit,
		Quiet:    *jsonOut,
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		return printJSON(res)
	}
	fmt.Println("get-logs summary")
	fmt.Printf("total: %d\n", res.Total)
	fmt.Printf("fetched: %d (cached: %d)\n", res.Fetched, res.FromCache)
	fmt.Printf("error_markers: %d\n", res.Markers)
	fmt.Printf("skipped: %d\n", res.Skipped)
	return nil
}

// resolveToken prefers the flag, then the environment; a .env file is loaded
// first when present so local runs do not need an exported variable.
func resolveToken(flagValue string) (string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return strings.TrimSpace(flagValue), nil
	}
	_ = godotenv.Load()
	if v := strings.TrimSpace(os.Getenv(tokenEnvVar)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("API token required (--token or %s environment variable)", tokenEnvVar)
}
