// Package playersync refreshes the local player directory from the upstream
// bulk player feed.
package playersync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/playerstock/internal/adapters/repository"
	"github.com/okian/playerstock/internal/adapters/sleeper"
	"github.com/okian/playerstock/internal/domain/model"
	"github.com/okian/playerstock/pkg/logger"
)

// Error constants.
var (
	ErrNilConfig   = errors.New("nil sync config")
	ErrEmptyFeed   = errors.New("player feed is empty")
	ErrMissingPath = errors.New("database path is required")
)

// Run downloads the player feed and upserts every usable entry in one
// transaction. It returns the collected statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if config == nil {
		return nil, ErrNilConfig
	}
	if config.DBPath == "" && !config.DryRun {
		return nil, ErrMissingPath
	}
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("playersync")

	log.Info(ctx, "starting player sync",
		logger.String("baseURL", config.BaseURL),
		logger.String("sport", config.Sport),
		logger.String("db", config.DBPath),
		logger.Bool("dryRun", config.DryRun))

	opts := []sleeper.Option{sleeper.WithLogger(log), sleeper.WithRateLimit(0, 0)}
	if config.BaseURL != "" {
		opts = append(opts, sleeper.WithBaseURL(config.BaseURL))
	}
	if config.Sport != "" {
		opts = append(opts, sleeper.WithSport(config.Sport))
	}
	if config.Timeout > 0 {
		opts = append(opts, sleeper.WithTimeout(config.Timeout))
	}
	client := sleeper.NewClient(opts...)

	// Step 1: Download the feed
	entries, err := client.ListPlayers(ctx)
	if err != nil {
		return stats, fmt.Errorf("player feed download failed: %w", err)
	}
	stats.Fetched = len(entries)
	if len(entries) == 0 {
		return stats, ErrEmptyFeed
	}

	// Step 2: Normalise into directory records
	records := Normalize(ctx, entries, stats, config.Verbose)

	// Step 3: Write
	if !config.DryRun {
		written, err := write(ctx, config.DBPath, records)
		if err != nil {
			return stats, err
		}
		stats.Written = written
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

// Normalize turns feed entries into directory records. Team and other
// non-numeric ids are skipped, entries without a name or position are
// dropped and repeated ids keep their first occurrence.
func Normalize(ctx context.Context, entries []sleeper.PlayerEntry, stats *Stats, verbose bool) []model.PlayerRecord {
	if stats == nil {
		stats = &Stats{}
	}
	log := logger.Get().Named("playersync")
	seen := make(map[string]struct{}, len(entries))
	out := make([]model.PlayerRecord, 0, len(entries))

	for _, e := range entries {
		id := strings.TrimSpace(e.PlayerID)
		if !isNumeric(id) {
			stats.NonNumeric++
			continue
		}
		name := displayName(e)
		position := strings.TrimSpace(e.Position)
		if name == "" || position == "" {
			stats.Incomplete++
			if verbose {
				log.Debug(ctx, "skipping incomplete player", logger.String("playerId", id))
			}
			continue
		}
		if _, dup := seen[id]; dup {
			stats.Duplicates++
			continue
		}
		seen[id] = struct{}{}
		out = append(out, model.PlayerRecord{ID: id, DisplayName: name, Position: position})
	}
	return out
}

func write(ctx context.Context, path string, records []model.PlayerRecord) (int, error) {
	db, err := repository.Open(ctx, repository.DefaultConfig(path))
	if err != nil {
		return 0, fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close database", logger.Error(err))
		}
	}()

	n, err := db.UpsertPlayers(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("upsert players: %w", err)
	}
	return n, nil
}

func displayName(e sleeper.PlayerEntry) string {
	first := strings.TrimSpace(e.FirstName)
	last := strings.TrimSpace(e.LastName)
	if first != "" && last != "" {
		return first + " " + last
	}
	return strings.TrimSpace(e.FullName)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// displayFinalStats logs the final sync statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.Int("fetched", stats.Fetched),
		logger.Int("nonNumeric", stats.NonNumeric),
		logger.Int("incomplete", stats.Incomplete),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("written", stats.Written),
		logger.String("duration", stats.Duration.String()))
}
