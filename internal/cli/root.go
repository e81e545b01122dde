package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "get-logs":
		return runGetLogs(args[1:])
	case "classify":
		return runClassify(args[1:])
	case "browse":
		return runBrowse(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("spack-triage: classify failed CI jobs against known error signatures")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  spack-triage get-logs --token $API_TOKEN errors.csv")
	fmt.Println("  spack-triage classify --output classified.csv errors.csv")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  get-logs  fetch job trace logs for a manifest into a log directory")
	fmt.Println("  classify  match job logs against the error taxonomy and report counts")
	fmt.Println("  browse    interactive viewer for classified jobs and their logs")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - The manifest CSV is always the terminal argument")
	fmt.Println("  - Use --json on get-logs/classify for machine-readable output")
	fmt.Println("  - Fetched traces are cached; rerunning get-logs does not re-hit the API")
}
