// Command dbeditor dumps a PostgreSQL database's contents to JSON, and
// applies edits made to that JSON back as SQL.
package main

import "github.com/hediet/database-editor/cmd"

func main() {
	cmd.Execute()
}
