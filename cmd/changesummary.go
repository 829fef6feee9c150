package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/hediet/database-editor/internal/rowdiff"
)

var (
	summaryHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	summaryInsertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	summaryUpdateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	summaryDeleteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// printChangeSummary renders a per-table insert/update/delete count table,
// grounded on cmd/apply.go's colored plan-step printout (lockplane's apply
// command prints one step per line; here a change set is grouped and
// counted per table and kind instead, since a single sync can touch
// thousands of rows).
func printChangeSummary(changes rowdiff.ChangeSet) {
	if len(changes) == 0 {
		_, _ = color.New(color.FgGreen).Fprintln(os.Stderr, "No changes.")
		return
	}

	type counts struct{ inserts, updates, deletes int }
	byTable := map[string]*counts{}
	var tables []string
	for _, c := range changes {
		ct, ok := byTable[c.Table]
		if !ok {
			ct = &counts{}
			byTable[c.Table] = ct
			tables = append(tables, c.Table)
		}
		switch c.Kind {
		case rowdiff.Insert:
			ct.inserts++
		case rowdiff.Update:
			ct.updates++
		case rowdiff.Delete:
			ct.deletes++
		}
	}
	sort.Strings(tables)

	fmt.Fprintln(os.Stderr, summaryHeaderStyle.Render(fmt.Sprintf("%-30s %8s %8s %8s", "table", "insert", "update", "delete")))
	for _, table := range tables {
		ct := byTable[table]
		fmt.Fprintf(os.Stderr, "%-30s %s %s %s\n",
			table,
			summaryInsertStyle.Render(fmt.Sprintf("%8d", ct.inserts)),
			summaryUpdateStyle.Render(fmt.Sprintf("%8d", ct.updates)),
			summaryDeleteStyle.Render(fmt.Sprintf("%8d", ct.deletes)),
		)
	}
	fmt.Fprintf(os.Stderr, "\n%d change(s) across %d table(s)\n", len(changes), len(tables))
}

// confirmUnlessAutoApproved asks the user to type "yes" before proceeding,
// mirroring cmd/apply.go's plain fmt.Scanln confirmation prompt exactly.
func confirmUnlessAutoApproved(autoApprove bool, verb string) bool {
	if autoApprove {
		return true
	}

	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	_, _ = bold.Fprintf(os.Stderr, "\nDo you want to %s these changes?\n", verb)
	_, _ = color.New(color.FgYellow).Fprintf(os.Stderr, "  Only 'yes' will be accepted to approve.\n\n")
	fmt.Fprintf(os.Stderr, "  Enter a value: ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		_, _ = red.Fprintf(os.Stderr, "\nCancelled.\n")
		return false
	}
	if response != "yes" {
		_, _ = red.Fprintf(os.Stderr, "\nCancelled.\n")
		return false
	}
	return true
}
