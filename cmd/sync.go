package cmd

import (
	"context"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hediet/database-editor/internal/orchestrator"
)

var syncCmd = &cobra.Command{
	Use:   "sync <file.json>",
	Short: "Apply a file's edits back to the database as a three-way merge",
	Long: `Sync diffs the edited file against its stored base snapshot (or, if
none is referenced, against the live database), applies the resulting
insert/update/delete statements in a single transaction, and rewrites the
base snapshot to reflect the new state.`,
	Args: cobra.ExactArgs(1),
	Run:  runSync,
}

var (
	syncEnvironment string
	syncTarget      string
	syncAutoApprove bool
)

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncEnvironment, "environment", "", "Environment name (default: config's default_environment, or \"local\")")
	syncCmd.Flags().StringVar(&syncTarget, "db", "", "Database connection string (overrides the resolved environment)")
	syncCmd.Flags().BoolVar(&syncAutoApprove, "auto-approve", false, "Skip interactive approval")
}

func runSync(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	path := args[0]

	connStr := resolveConnStr(syncEnvironment, syncTarget)

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
	if len(changes) == 0 {
		return
	}

	if !confirmUnlessAutoApproved(syncAutoApprove, "sync") {
		os.Exit(0)
	}

	applied, err := orc.Sync(ctx, path)
	if err != nil {
		reportOrchestratorError(err)
		os.Exit(1)
	}

	_, _ = color.New(color.FgGreen, color.Bold).Fprintf(os.Stderr, "\nSynced %d change(s).\n", len(applied))
}
