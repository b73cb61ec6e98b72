package app

import (
	"flag"
	"fmt"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/CyanTarantula/trend-pulse/internal/auth"
	"github.com/CyanTarantula/trend-pulse/internal/cli"
	"github.com/CyanTarantula/trend-pulse/internal/db"
)

type apiKeyView struct {
	ID         int64  `json:"id"`
	Prefix     string `json:"prefix"`
	AppName    string `json:"app_name"`
	OwnerEmail string `json:"owner_email"`
	Active     bool   `json:"active"`
	CreatedAt  string `json:"created_at"`
	LastUsedAt string `json:"last_used_at,omitempty"`
	RevokedAt  string `json:"revoked_at,omitempty"`
}

func runAPIKey(args []string) int {
	if len(args) == 0 {
		printAPIKeyUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printAPIKeyUsage()
		return 0
	case "create":
		return runAPIKeyCreate(args[1:])
	case "list":
		return runAPIKeyList(args[1:])
	case "revoke":
		return runAPIKeyRevoke(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown apikey command: %s\n\n", args[0])
		printAPIKeyUsage()
		return 2
	}
}

func printAPIKeyUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  trend-pulse apikey create --app NAME --email OWNER")
	fmt.Fprintln(os.Stderr, "  trend-pulse apikey list [--format table|json]")
	fmt.Fprintln(os.Stderr, "  trend-pulse apikey revoke --prefix PREFIX")
}

func runAPIKeyCreate(args []string) int {
	fs := flag.NewFlagSet("apikey create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	appName := fs.String("app", "", "Name of the application using the key (required)")
	email := fs.String("email", "", "Owner email address (required)")
	timeout := fs.Duration("timeout", 15*time.Second, "Command timeout")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	name := strings.TrimSpace(*appName)
	if name == "" {
		fmt.Fprintln(os.Stderr, "--app is required")
		return 2
	}
	owner, err := parseOwnerEmail(*email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid --email: %v\n", err)
		return 2
	}

	key, prefix, err := auth.GenerateAPIKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generate key failed: %v\n", err)
		return 1
	}
	hash, err := auth.HashAPIKey(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Hash key failed: %v\n", err)
		return 1
	}

	ctx, cancel, pool, logger, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	row, err := pool.CreateAPIKey(ctx, prefix, hash, name, owner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Create key failed: %v\n", err)
		return 1
	}
	logger.Info().Str("prefix", row.Prefix).Str("app", row.AppName).Msg("api key created")

	fmt.Printf("api_key_id=%d prefix=%s app=%s owner=%s\n", row.APIKeyID, row.Prefix, row.AppName, row.OwnerEmail)
	fmt.Printf("key=%s\n", key)
	fmt.Fprintln(os.Stderr, "Store this key now; it cannot be shown again.")
	return 0
}

func runAPIKeyList(args []string) int {
	fs := flag.NewFlagSet("apikey list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	format := fs.String("format", outputFormatTable, "Output format: table or json")
	timeout := fs.Duration("timeout", 15*time.Second, "Command timeout")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	out, err := newListing(*format, "ID", "PREFIX", "APP", "OWNER", "ACTIVE", "CREATED", "LAST USED")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, cancel, pool, _, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	rows, err := pool.ListAPIKeys(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List keys failed: %v\n", err)
		return 1
	}

	views := make([]apiKeyView, 0, len(rows))
	for _, row := range rows {
		view := toAPIKeyView(row)
		views = append(views, view)
		out.addRow(
			strconv.FormatInt(view.ID, 10),
			view.Prefix,
			clip(view.AppName, 32),
			view.OwnerEmail,
			strconv.FormatBool(view.Active),
			view.CreatedAt,
			view.LastUsedAt,
		)
	}
	out.views = views

	if err := out.render(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Write output failed: %v\n", err)
		return 1
	}
	return 0
}

func runAPIKeyRevoke(args []string) int {
	fs := flag.NewFlagSet("apikey revoke", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	prefixRaw := fs.String("prefix", "", "Lookup prefix of the key to revoke, or the full key (required)")
	timeout := fs.Duration("timeout", 15*time.Second, "Command timeout")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	prefix := strings.TrimSpace(*prefixRaw)
	if lookup, ok := auth.LookupPrefix(prefix); ok {
		prefix = lookup
	}
	if prefix == "" {
		fmt.Fprintln(os.Stderr, "--prefix is required")
		return 2
	}

	ctx, cancel, pool, logger, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	if err := pool.RevokeAPIKey(ctx, prefix); err != nil {
		if db.IsNoRows(err) {
			fmt.Fprintf(os.Stderr, "No active key with prefix %s\n", prefix)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Revoke key failed: %v\n", err)
		return 1
	}

	logger.Info().Str("prefix", prefix).Msg("api key revoked")
	fmt.Printf("revoked prefix=%s\n", prefix)
	return 0
}

func parseOwnerEmail(raw string) (string, error) {
	normalized := auth.NormalizeEmail(raw)
	if normalized == "" {
		return "", fmt.Errorf("email is required")
	}
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return "", fmt.Errorf("%q is not a plain email address", raw)
	}
	return normalized, nil
}

func toAPIKeyView(row db.APIKey) apiKeyView {
	created := row.CreatedAt
	return apiKeyView{
		ID:         row.APIKeyID,
		Prefix:     row.Prefix,
		AppName:    row.AppName,
		OwnerEmail: row.OwnerEmail,
		Active:     row.Active,
		CreatedAt:  formatTimestamp(&created),
		LastUsedAt: formatTimestamp(row.LastUsedAt),
		RevokedAt:  formatTimestamp(row.RevokedAt),
	}
}
