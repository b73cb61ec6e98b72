// Package cli holds flag helpers shared by the trend-pulse commands.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// OverrideEnvVar names an env file that wins over the --env flag.
const OverrideEnvVar = "TREND_PULSE_ENV_FILE"

// EnvLoader loads the first readable .env file among its candidates.
type EnvLoader struct {
	requested   *string
	defaultPath string
	// Notices receives one line naming the loaded file. Defaults to stderr.
	Notices io.Writer
}

type envCandidate struct {
	origin string
	path   string
}

// AddEnvFlag registers an --env flag and returns an EnvLoader bound to it.
func AddEnvFlag(fs *flag.FlagSet, defaultPath, description string) *EnvLoader {
	if fs == nil {
		fs = flag.CommandLine
	}
	if strings.TrimSpace(defaultPath) == "" {
		defaultPath = ".env"
	}
	if strings.TrimSpace(description) == "" {
		description = "Path to the .env file"
	}

	return &EnvLoader{
		requested:   fs.String("env", defaultPath, description),
		defaultPath: defaultPath,
	}
}

// Load applies the first candidate that godotenv can read: the file named by
// TREND_PULSE_ENV_FILE, the --env value, the basename of the --env value, then
// the default path. Variables already set in the process win over file values.
func (l *EnvLoader) Load() (string, error) {
	if l == nil {
		return "", fmt.Errorf("env loader is nil")
	}

	notices := l.Notices
	if notices == nil {
		notices = os.Stderr
	}

	candidates := l.candidates()
	tried := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if err := godotenv.Load(candidate.path); err != nil {
			tried = append(tried, candidate.path)
			continue
		}
		fmt.Fprintf(notices, "Loaded environment from %s: %s\n", candidate.origin, candidate.path)
		return candidate.path, nil
	}

	return "", fmt.Errorf("no env file could be loaded (tried %s)", strings.Join(tried, ", "))
}

func (l *EnvLoader) candidates() []envCandidate {
	requested := ""
	if l.requested != nil {
		requested = strings.TrimSpace(*l.requested)
	}
	if requested == "" {
		requested = l.defaultPath
	}

	all := []envCandidate{
		{origin: OverrideEnvVar, path: strings.TrimSpace(os.Getenv(OverrideEnvVar))},
		{origin: "--env", path: requested},
		{origin: "basename fallback", path: filepath.Base(requested)},
		{origin: "default", path: l.defaultPath},
	}

	seen := make(map[string]struct{}, len(all))
	unique := make([]envCandidate, 0, len(all))
	for _, candidate := range all {
		if candidate.path == "" || candidate.path == "." {
			continue
		}
		if _, dup := seen[candidate.path]; dup {
			continue
		}
		seen[candidate.path] = struct{}{}
		unique = append(unique, candidate)
	}
	return unique
}
