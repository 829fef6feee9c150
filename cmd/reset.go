package cmd

import (
	"context"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hediet/database-editor/internal/orchestrator"
	"github.com/hediet/database-editor/internal/rowdiff"
)

var resetCmd = &cobra.Command{
	Use:   "reset <file.json>",
	Short: "Apply a file's edits back to the database as a two-way diff",
	Long: `Reset diffs the edited file directly against the live database,
ignoring any base snapshot, and applies the resulting insert/update/delete
statements in a single transaction. Rows present in the database but
absent from the file are deleted: use this to discard concurrent database
changes outright, or when there's no base snapshot to merge against.`,
	Args: cobra.ExactArgs(1),
	Run:  runReset,
}

var (
	resetEnvironment string
	resetTarget      string
	resetAutoApprove bool
)

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().StringVar(&resetEnvironment, "environment", "", "Environment name (default: config's default_environment, or \"local\")")
	resetCmd.Flags().StringVar(&resetTarget, "db", "", "Database connection string (overrides the resolved environment)")
	resetCmd.Flags().BoolVar(&resetAutoApprove, "auto-approve", false, "Skip interactive approval")
}

func runReset(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	path := args[0]

	connStr := resolveConnStr(resetEnvironment, resetTarget)

	orc, err := orchestrator.Open(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = orc.Close() }()

	_, _ = color.New(color.FgYellow).Fprintln(os.Stderr, "Reset diffs the live database against the file directly and may delete rows absent from it.")
	if !confirmUnlessAutoApproved(resetAutoApprove, "reset") {
		os.Exit(0)
	}

	changes, err := orc.Reset(ctx, path)
	if err != nil {
		reportOrchestratorError(err)
		os.Exit(1)
	}

	deletes := 0
	for _, c := range changes {
		if c.Kind == rowdiff.Delete {
			deletes++
		}
	}
	if deletes > 0 {
		_, _ = color.New(color.FgYellow).Fprintf(os.Stderr, "Warning: this deleted %d row(s) not present in the file.\n", deletes)
	}

	printChangeSummary(changes)
	_, _ = color.New(color.FgGreen, color.Bold).Fprintf(os.Stderr, "\nReset applied %d change(s).\n", len(changes))
}
