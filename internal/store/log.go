package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// ProcessedSet holds the courses that already have an outcome.
type ProcessedSet map[string]struct{}

func (s ProcessedSet) Has(course string) bool {
	_, ok := s[course]
	return ok
}

func (s ProcessedSet) Add(course string) {
	s[course] = struct{}{}
}

// OutcomeLog is an NDJSON file with one Outcome per line. Every append is
// synced to disk before returning.
type OutcomeLog struct {
	path string

	mutex sync.Mutex
	file  *os.File
}

func NewOutcomeLog(path string) *OutcomeLog {
	return &OutcomeLog{path: path}
}

func (l *OutcomeLog) Path() string {
	return l.path
}

type logLine struct {
	outcome Outcome
	course  string
}

// lines returns the usable lines of the log and the number of skipped ones.
// A missing file is an empty log.
func (l *OutcomeLog) lines() ([]logLine, int, error) {
	buff, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	var out []logLine
	skipped := 0
	for _, raw := range bytes.Split(buff, []byte("\n")) {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		var probe struct {
			Course any `json:"course"`
		}
		if json.Unmarshal(raw, &probe) != nil {
			skipped++
			continue
		}
		course := courseKey(probe.Course)
		if course == "" {
			skipped++
			continue
		}
		line := logLine{course: course}
		// records written by other tools may disagree on field types, the
		// course is all that resuming needs
		_ = json.Unmarshal(raw, &line.outcome)
		line.outcome.Course = course
		out = append(out, line)
	}
	return out, skipped, nil
}

func courseKey(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "true"
		}
	}
	return ""
}

// Processed replays the log into the set of courses that need no work.
func (l *OutcomeLog) Processed() (ProcessedSet, error) {
	lines, _, err := l.lines()
	if err != nil {
		return nil, fmt.Errorf("read outcome log: %w", err)
	}
	set := ProcessedSet{}
	for _, line := range lines {
		set.Add(line.course)
	}
	return set, nil
}

// Outcomes returns every readable record in log order and the number of
// lines that were skipped.
func (l *OutcomeLog) Outcomes() ([]Outcome, int, error) {
	lines, skipped, err := l.lines()
	if err != nil {
		return nil, 0, fmt.Errorf("read outcome log: %w", err)
	}
	out := make([]Outcome, len(lines))
	for i, line := range lines {
		out[i] = line.outcome
	}
	return out, skipped, nil
}

func (l *OutcomeLog) Append(outcome Outcome) error {
	buff, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	buff = append(buff, '\n')

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.file == nil {
		err = os.MkdirAll(filepath.Dir(l.path), 0755)
		if err != nil {
			return err
		}
		l.file, err = os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
	}
	_, err = l.file.Write(buff)
	if err != nil {
		return fmt.Errorf("append outcome: %w", err)
	}
	err = l.file.Sync()
	if err != nil {
		return fmt.Errorf("sync outcome log: %w", err)
	}
	return nil
}

func (l *OutcomeLog) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
