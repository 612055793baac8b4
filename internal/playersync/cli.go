package playersync

import "os"

// ShowHelp prints usage information for the sync tool.
func ShowHelp() {
	os.Stdout.WriteString(`PlayerStock Player Sync
=======================

Downloads the upstream player feed and refreshes the local player directory.

Usage:
  go run cmd/sync-players/main.go [options]

Options:
  -url string
        Upstream API base URL (default "https://api.sleeper.app/v1")
  -sport string
        Sport whose players are synced (default "nfl")
  -db string
        SQLite database file (default "data/playerstock.db")
  -timeout duration
        HTTP request timeout (default 60s)
  -dry-run
        Parse the feed and report counts without writing
  -verbose
        Log every skipped entry
  -help
        Show this help message

Examples:
  # Refresh the default database
  go run cmd/sync-players/main.go

  # Inspect the feed without touching the database
  go run cmd/sync-players/main.go -dry-run -verbose
`)
}
