package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dbeditor",
	Short: "dbeditor edits a PostgreSQL database's contents as a JSON document.",
	Long: `dbeditor dumps a live database to JSON, lets you edit the JSON in a text
editor, and applies the edits back as SQL.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
