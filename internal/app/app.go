package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "sync", "run-once":
		return runSync(args[1:])
	case "ingest":
		return runIngest(args[1:])
	case "validate":
		return runValidate(args[1:])
	case "topic":
		return runTopic(args[1:])
	case "serve":
		return runServe(args[1:])
	case "apikey":
		return runAPIKey(args[1:])
	case "runs":
		return runRuns(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "trend-pulse CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  trend-pulse <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health    Verify database connectivity and the embedding backend")
	fmt.Fprintln(os.Stderr, "  sync      Collect signals from every source and merge them into the category tables")
	fmt.Fprintln(os.Stderr, "  run-once  Alias for sync")
	fmt.Fprintln(os.Stderr, "  ingest    Merge a JSON signal batch file into the category tables")
	fmt.Fprintln(os.Stderr, "  validate  Validate JSON signal batch files against the ingestion schema")
	fmt.Fprintln(os.Stderr, "  topic     Print the extracted topic and category for a title")
	fmt.Fprintln(os.Stderr, "  serve     Start the read API server")
	fmt.Fprintln(os.Stderr, "  apikey    Manage API keys (create, list, revoke)")
	fmt.Fprintln(os.Stderr, "  runs      List recent sync runs")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"trend-pulse <command> -h\" for command-specific flags.")
}
