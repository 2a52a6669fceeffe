/*
PURPOSE:
  The run log: one RunRecord per resolved run, as JSON Lines (NDJSON).

REQUIREMENTS:
  Implementation-discovered:
  - JSON Lines is append-friendly; each session adds to what earlier sessions wrote.
  - The console shows recent runs, so the log is read back as well as written.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Session run hook, Session.History)
  - Consumes: internal/model.RunRecord

ERROR HANDLING:
  - Append returns error on write failure; the caller decides whether that is fatal.
  - ReadRunLog reports the line number of the first undecodable record.

IMPLEMENTATION RULES:
  - Thread-safe appends.

USAGE:
  log, err := output.OpenRunLog("pfr_runs.jsonl")
  log.Append(rec)
  recent, err := output.ReadRunLog("pfr_runs.jsonl", 10)
*/

package output

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/daryltucker/pfr-console/internal/model"
)

// RunLog appends run records to a JSON Lines file.
type RunLog struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// OpenRunLog opens path for appending, creating it if needed.
func OpenRunLog(path string) (*RunLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &RunLog{path: path, f: f, enc: json.NewEncoder(f)}, nil
}

// Path returns the file the log writes to.
func (l *RunLog) Path() string { return l.path }

// Append writes rec as one line.
func (l *RunLog) Append(rec model.RunRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(rec)
}

// Close closes the file.
func (l *RunLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// ReadRunLog returns the last limit records in path, oldest first. A limit <= 0
// returns all of them. A missing file is an empty log.
func ReadRunLog(path string, limit int) ([]model.RunRecord, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var recs []model.RunRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec model.RunRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("run log %s line %d: %w", path, line, err)
		}
		recs = append(recs, rec)
		if limit > 0 && len(recs) > limit {
			recs = recs[1:]
		}
	}
	return recs, sc.Err()
}
