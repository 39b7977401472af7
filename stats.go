package triviagen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// StatsStore persists the aggregate answer counters.
type StatsStore interface {
	Read(ctx context.Context) (Stats, error)
	Write(ctx context.Context, stats Stats) error
}

// JSONStatsFile keeps Stats in a pretty-printed JSON file. Missing or corrupt
// content is replaced by zeroed counters on Read.
type JSONStatsFile struct {
	path string
	log  zerolog.Logger
}

// NewJSONStatsFile returns a store backed by path. The file is created with
// zeroed counters if it does not exist yet.
func NewJSONStatsFile(path string, log zerolog.Logger) (*JSONStatsFile, error) {
	sf := &JSONStatsFile{path: path, log: log}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := sf.Write(context.Background(), Stats{}); err != nil {
			return nil, err
		}
	}
	return sf, nil
}

// Read returns the stored counters. When the file is missing or unreadable
// the zero value is written back and returned; a failure to write it back is
// logged, not returned.
func (sf *JSONStatsFile) Read(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	data, err := os.ReadFile(sf.path)
	if err == nil {
		var stats Stats
		if err = json.Unmarshal(data, &stats); err == nil {
			if stats.CorrectAnswers >= 0 && stats.WrongAnswers >= 0 && stats.TotalQuestions >= 0 {
				return stats, nil
			}
			err = fmt.Errorf("negative counter in %+v", stats)
		}
	}

	sf.log.Warn().Err(err).Str("path", sf.path).Msg("Stats unavailable, resetting to defaults")
	if werr := sf.Write(ctx, Stats{}); werr != nil {
		sf.log.Error().Err(werr).Str("path", sf.path).Msg("Failed to persist default stats")
	}
	return Stats{}, nil
}

// Write replaces the stored counters. The file is swapped in with a rename so
// readers never see a half-written document.
func (sf *JSONStatsFile) Write(ctx context.Context, stats Stats) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal stats: %v", ErrPersistence, err)
	}

	dir := filepath.Dir(sf.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create stats directory: %v", ErrPersistence, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(sf.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create stats file: %v", ErrPersistence, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to write stats: %v", ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to write stats: %v", ErrPersistence, err)
	}
	if err := os.Rename(tmp.Name(), sf.path); err != nil {
		return fmt.Errorf("%w: failed to replace stats file: %v", ErrPersistence, err)
	}
	return nil
}

// RecordOutcome performs one read-modify-write cycle on store. Concurrent
// cycles are not serialized, so one of two simultaneous updates may be lost.
// The updated counters are returned even when the write fails; the error then
// wraps ErrPersistence.
func RecordOutcome(ctx context.Context, store StatsStore, isCorrect bool) (Stats, error) {
	stats, err := store.Read(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats.TotalQuestions++
	if isCorrect {
		stats.CorrectAnswers++
	} else {
		stats.WrongAnswers++
	}

	if err := store.Write(ctx, stats); err != nil {
		return stats, err
	}
	return stats, nil
}
