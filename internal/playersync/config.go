package playersync

import "time"

// Config holds configuration for a player snapshot sync.
type Config struct {
	BaseURL string        // Upstream API base URL
	Sport   string        // Sport whose player feed is downloaded
	DBPath  string        // SQLite database file
	Timeout time.Duration // HTTP request timeout
	DryRun  bool          // Parse and report without writing
	Verbose bool          // Log every skipped entry
}

// Stats holds sync statistics.
type Stats struct {
	Fetched    int
	NonNumeric int
	Incomplete int
	Duplicates int
	Written    int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
