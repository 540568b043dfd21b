// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package lifecycle

import (
	"bytes"
	"os"
	"strings"
	"sync"

	"github.com/tomtom215/palward/internal/logging"
)

// RingLog is a bounded buffer of the newest process output lines,
// serving as the panel's log feed. It implements io.Writer so it can be
// attached directly to the child's stdout and stderr.
//
// Access-log lines for the REST API polling endpoints are filtered out:
// at one poll every few seconds they would crowd out everything useful
// within a minute.
type RingLog struct {
	capacity int
	filePath string

	mu      sync.Mutex
	lines   []string
	partial bytes.Buffer
}

// NewRingLog creates a RingLog keeping the newest capacity lines.
// filePath, when non-empty, receives every kept line appended for
// post-mortem reading; append failures are logged once and ignored.
func NewRingLog(capacity int, filePath string) *RingLog {
	if capacity <= 0 {
		capacity = 50
	}
	return &RingLog{capacity: capacity, filePath: filePath}
}

// Write splits the stream into lines and appends the kept ones.
func (r *RingLog) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.partial.Write(p)
	for {
		raw := r.partial.Bytes()
		idx := bytes.IndexByte(raw, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimRight(string(raw[:idx]), "\r")
		r.partial.Next(idx + 1)
		r.appendLocked(line)
	}
	return len(p), nil
}

// Append adds one line directly, subject to the same filter.
func (r *RingLog) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendLocked(line)
}

func (r *RingLog) appendLocked(line string) {
	if line == "" || isPollingNoise(line) {
		return
	}

	r.lines = append(r.lines, line)
	if len(r.lines) > r.capacity {
		r.lines = r.lines[len(r.lines)-r.capacity:]
	}

	if r.filePath != "" {
		f, err := os.OpenFile(r.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
		if err != nil {
			logging.Debug().Err(err).Msg("Cannot append to panel log file")
			return
		}
		_, _ = f.WriteString(line + "\n")
		_ = f.Close()
	}
}

// Lines returns the buffered lines, oldest first.
func (r *RingLog) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// isPollingNoise matches the game server's access-log lines for the
// REST endpoints the management plane itself hits every few seconds.
func isPollingNoise(line string) bool {
	return strings.Contains(line, "/v1/api/players") ||
		strings.Contains(line, "/v1/api/settings") ||
		strings.Contains(line, "/v1/api/info")
}
