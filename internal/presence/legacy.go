// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package presence

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/tomtom215/palward/internal/logging"
	"github.com/tomtom215/palward/internal/models"
)

// LegacyFiles reads and writes the flat files kept for backward
// compatibility with the pre-database era: a newline-delimited sorted
// list of ever-connected ids and a tab-separated id<TAB>minutes playtime
// total file. They are written on every membership or playtime change so
// external tooling that still tails them keeps working.
type LegacyFiles struct {
	playerListPath string
	playtimePath   string
}

// NewLegacyFiles creates a LegacyFiles for the given paths.
func NewLegacyFiles(playerListPath, playtimePath string) *LegacyFiles {
	return &LegacyFiles{
		playerListPath: playerListPath,
		playtimePath:   playtimePath,
	}
}

// LoadPlayerList reads the ever-connected membership list. A missing
// file yields an empty list, not an error.
func (lf *LegacyFiles) LoadPlayerList() ([]string, error) {
	f, err := os.Open(lf.playerListPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", lf.playerListPath, err)
	}
	defer func() { _ = f.Close() }()

	var keys []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if key := models.NormalizeKey(scanner.Text()); key != "" {
			keys = append(keys, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", lf.playerListPath, err)
	}
	return keys, nil
}

// LoadPlaytime reads the cumulative playtime totals. A missing file
// yields an empty map. Unparseable lines are skipped with a warning.
func (lf *LegacyFiles) LoadPlaytime() (map[string]float64, error) {
	f, err := os.Open(lf.playtimePath)
	if os.IsNotExist(err) {
		return map[string]float64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", lf.playtimePath, err)
	}
	defer func() { _ = f.Close() }()

	totals := make(map[string]float64)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, found := strings.Cut(line, "\t")
		if !found {
			logging.Warn().Str("line", line).Msg("Skipping malformed playtime line")
			continue
		}
		minutes, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			logging.Warn().Str("line", line).Msg("Skipping malformed playtime line")
			continue
		}
		if k := models.NormalizeKey(key); k != "" {
			totals[k] = minutes
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", lf.playtimePath, err)
	}
	return totals, nil
}

// SavePlayerList writes the ever-connected list, sorted, one id per
// line.
func (lf *LegacyFiles) SavePlayerList(keys []string) error {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	var b strings.Builder
	for _, k := range sorted {
		b.WriteString(k)
		b.WriteByte('\n')
	}
	return writeFileAtomic(lf.playerListPath, []byte(b.String()))
}

// SavePlaytime writes the cumulative totals, sorted by id, one
// id<TAB>minutes pair per line.
func (lf *LegacyFiles) SavePlaytime(totals map[string]float64) error {
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("%s\t%.2f\n", k, totals[k]))
	}
	return writeFileAtomic(lf.playtimePath, []byte(b.String()))
}

// writeFileAtomic writes via a temp file and rename so a crash mid-write
// never truncates the previous contents.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
