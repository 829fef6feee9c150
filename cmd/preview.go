package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hediet/database-editor/internal/config"
	"github.com/hediet/database-editor/internal/dberrors"
	"github.com/hediet/database-editor/internal/orchestrator"
)

var previewCmd = &cobra.Command{
	Use:   "preview <file.json>",
	Short: "Show what sync would change, without touching the database",
	Long: `Preview computes the same change set sync would apply: a three-way
merge against the stored base snapshot if the file references one,
otherwise a two-way diff against the live database.`,
	Args: cobra.ExactArgs(1),
	Run:  runPreview,
}

var previewEnvironment string
var previewTarget string

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVar(&previewEnvironment, "environment", "", "Environment name (default: config's default_environment, or \"local\")")
	previewCmd.Flags().StringVar(&previewTarget, "db", "", "Database connection string (overrides the resolved environment)")
}

func runPreview(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	path := args[0]

	connStr := resolveConnStr(previewEnvironment, previewTarget)

	orc, err := orchestrator.Open(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = orc.Close() }()

	changes, err := orc.Preview(ctx, path)
	if err != nil {
		reportOrchestratorError(err)
		os.Exit(1)
	}

	printChangeSummary(changes)
}

// resolveEnvironment loads config and resolves environment, applying an
// explicit --db override on top of the result's DatabaseURL.
func resolveEnvironment(environment, target string) *config.ResolvedEnvironment {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	env, err := config.ResolveEnvironment(cfg, environment)
	if err != nil {
		log.Fatalf("Failed to resolve environment: %v", err)
	}

	if t := strings.TrimSpace(target); t != "" {
		env.DatabaseURL = t
	}
	return env
}

// resolveConnStr is a convenience wrapper over resolveEnvironment for
// commands that only need the connection string.
func resolveConnStr(environment, target string) string {
	return resolveEnvironment(environment, target).DatabaseURL
}

// reportOrchestratorError prints a diagnostic tailored to the known
// dberrors taxonomy members an orchestrator call can raise, following
// cmd/apply.go's pattern of a specific, actionable message per failure.
func reportOrchestratorError(err error) {
	red := color.New(color.FgRed, color.Bold)

	var missingBase *dberrors.MissingBase
	var unresolvedRef *dberrors.UnresolvedRef
	var truncated *dberrors.TruncatedInput

	switch {
	case errors.As(err, &missingBase):
		_, _ = red.Fprintf(os.Stderr, "Error: %v\n\n", err)
		_, _ = color.New(color.FgYellow).Fprintln(os.Stderr, "Use reset for a two-way apply against the live database instead, or dump again to create a fresh base snapshot.")
	case errors.As(err, &unresolvedRef):
		_, _ = red.Fprintf(os.Stderr, "Error: %v\n\n", err)
		_, _ = color.New(color.FgYellow).Fprintln(os.Stderr, "A $ref must point at a row that exists either elsewhere in the file or already in the database.")
	case errors.As(err, &truncated):
		_, _ = red.Fprintf(os.Stderr, "Error: %v\n\n", err)
	default:
		_, _ = red.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}
