package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hediet/database-editor/internal/orchestrator"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [output.json]",
	Short: "Dump a database's contents to a JSON file",
	Long: `Dump fetches every row the schema's ownership tree can reach and
writes it as JSON, alongside a base snapshot and a JSON-schema companion
file used for editor autocomplete. Edit the output file and apply the
edits back with sync or reset.`,
	Example: `  # Dump the local environment to db.json
  dbeditor dump db.json --environment local

  # Dump with a row limit per table and a nested layout
  dbeditor dump db.json --limit 500 --nested`,
	Args: cobra.MaximumNArgs(1),
	Run:  runDump,
}

var (
	dumpEnvironment string
	dumpTarget      string
	dumpLimit       int
	dumpNestedLimit int
	dumpNested      bool
	dumpSkipBase    bool
)

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().StringVar(&dumpEnvironment, "environment", "", "Environment name (default: config's default_environment, or \"local\")")
	dumpCmd.Flags().StringVar(&dumpTarget, "db", "", "Database connection string (overrides the resolved environment)")
	dumpCmd.Flags().IntVar(&dumpLimit, "limit", 0, "Maximum rows per table in the output file (0 = unlimited)")
	dumpCmd.Flags().IntVar(&dumpNestedLimit, "nested-limit", 0, "Maximum children per owned collection in nested layout (0 = unlimited)")
	dumpCmd.Flags().BoolVar(&dumpNested, "nested", false, "Write the output file in nested (ownership-tree) layout instead of flat")
	dumpCmd.Flags().BoolVar(&dumpSkipBase, "skip-base", false, "Don't write a base snapshot or schema companion file (two-way only)")
}

func runDump(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	env := resolveEnvironment(dumpEnvironment, dumpTarget)
	connStr := env.DatabaseURL

	outputPath := ""
	if len(args) > 0 {
		outputPath = args[0]
	} else if env.OutputPath != "" {
		outputPath = env.OutputPath
	}
	if outputPath == "" {
		fmt.Fprintf(os.Stderr, "Error: no output path given.\n\n")
		fmt.Fprintf(os.Stderr, "Provide one as an argument, or set output_path in dbeditor.toml.\n")
		os.Exit(1)
	}

	_, _ = color.New(color.FgCyan).Fprintf(os.Stderr, "Connecting to %s...\n", env.Name)
	orc, err := orchestrator.Open(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = orc.Close() }()

	_, _ = color.New(color.FgCyan).Fprintf(os.Stderr, "Fetching rows...\n")
	result, err := orc.Dump(ctx, outputPath, orchestrator.DumpOptions{
		Limit:       dumpLimit,
		NestedLimit: dumpNestedLimit,
		Nested:      dumpNested,
		SkipBase:    dumpSkipBase,
	})
	if err != nil {
		log.Fatalf("Dump failed: %v", err)
	}

	green := color.New(color.FgGreen, color.Bold)
	_, _ = green.Fprintf(os.Stderr, "\nWrote %s\n", result.OutputPath)
	if result.BasePath != "" {
		fmt.Fprintf(os.Stderr, "  base snapshot:  %s\n", result.BasePath)
	}
	if result.SchemaPath != "" {
		fmt.Fprintf(os.Stderr, "  schema document: %s\n", result.SchemaPath)
	}

	if len(result.TruncationReport) > 0 {
		yellow := color.New(color.FgYellow)
		_, _ = yellow.Fprintf(os.Stderr, "\nTruncated (re-dump without --limit for a complete file):\n")
		for table, skipped := range result.TruncationReport {
			fmt.Fprintf(os.Stderr, "  %s: %d row(s) skipped\n", table, skipped)
		}
	}
}
