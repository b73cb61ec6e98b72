package app

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// batchReport is the validation outcome of one batch file.
type batchReport struct {
	Path    string
	Signals int
	Err     error
}

type validateSummary struct {
	Scanned int
	Valid   int
	Invalid int
	Signals int
}

func (s *validateSummary) add(report batchReport) {
	s.Scanned++
	if report.Err != nil {
		s.Invalid++
		return
	}
	s.Valid++
	s.Signals += report.Signals
}

func runValidate(args []string) int {
	flags := flag.NewFlagSet("validate", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: trend-pulse validate [--dir DIR] [--recursive] [FILE ...]")
		flags.PrintDefaults()
	}

	dir := flags.String("dir", "testdata/batches", "Directory containing .json signal batch files; ignored when files are given")
	recursive := flags.Bool("recursive", true, "Recursively scan subdirectories")

	if code, ok := parseFlags(flags, args); !ok {
		return code
	}

	files := flags.Args()
	origin := strings.Join(files, ",")
	if len(files) == 0 {
		origin = strings.TrimSpace(*dir)
		collected, err := collectJSONFiles(origin, *recursive)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Validation setup failed: %v\n", err)
			return 1
		}
		files = collected
	}

	summary := validateSummary{}
	for _, path := range files {
		count, err := validateBatchFile(path)
		report := batchReport{Path: path, Signals: count, Err: err}
		summary.add(report)
		if report.Err != nil {
			fmt.Fprintf(os.Stderr, "INVALID %v\n", report.Err)
		}
	}

	fmt.Printf(
		"validate scanned=%d valid=%d invalid=%d signals=%d from=%s\n",
		summary.Scanned,
		summary.Valid,
		summary.Invalid,
		summary.Signals,
		origin,
	)

	switch {
	case summary.Scanned == 0:
		fmt.Fprintf(os.Stderr, "Validation failed: no .json files found under %s\n", origin)
		return 1
	case summary.Invalid > 0:
		return 1
	default:
		return 0
	}
}

// collectJSONFiles lists the .json files under root in sorted order, skipping
// hidden files and directories.
func collectJSONFiles(root string, recursive bool) ([]string, error) {
	cleanRoot := strings.TrimSpace(root)
	if cleanRoot == "" {
		return nil, fmt.Errorf("directory path is empty")
	}

	info, err := os.Stat(cleanRoot)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", cleanRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", cleanRoot)
	}

	var files []string
	err = filepath.WalkDir(cleanRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path == cleanRoot {
				return nil
			}
			if !recursive || isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isHidden(d.Name()) && strings.EqualFold(filepath.Ext(d.Name()), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", cleanRoot, err)
	}

	sort.Strings(files)
	return files, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
