// Package learnlog keeps an append-only CSV record of the operator's
// categorisation decisions.
package learnlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pennywise-dev/pennywise/internal/categories"
)

// Entry is one decision, stamped with when and in which run it was made.
type Entry struct {
	Time  time.Time
	RunID string
	categories.Event
}

var columns = []string{"timestamp", "run_id", "action", "account", "category", "keyword"}

// Header is the first line of every learn log.
var Header = strings.Join(columns, ",")

// Validate checks that the entry carries what its action needs.
func (e Entry) Validate() error {
	if e.Category == "" {
		return fmt.Errorf("%s entry has no category", e.Action)
	}
	switch e.Action {
	case categories.ActionLearn, categories.ActionDecline:
		if strings.TrimSpace(e.Keyword) == "" {
			return fmt.Errorf("%s entry for %s has no keyword", e.Action, e.Category)
		}
	case categories.ActionCreateCategory:
		if e.Keyword != "" {
			return fmt.Errorf("create_category entry for %s has a keyword", e.Category)
		}
	default:
		_, err := categories.ParseAction(string(e.Action))
		return err
	}
	return nil
}

func (e Entry) record() []string {
	return []string{
		e.Time.UTC().Format(time.RFC3339),
		e.RunID,
		string(e.Action),
		e.Account,
		e.Category,
		e.Keyword,
	}
}

func parseRecord(rec []string) (Entry, error) {
	ts, err := time.Parse(time.RFC3339, rec[0])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", rec[0], err)
	}
	action, err := categories.ParseAction(rec[2])
	if err != nil {
		return Entry{}, err
	}
	e := Entry{
		Time:  ts,
		RunID: rec[1],
		Event: categories.Event{Action: action, Account: rec[3], Category: rec[4], Keyword: rec[5]},
	}
	return e, e.Validate()
}

// Append writes entries to path, creating the file, its directory and the
// header if needed. Nothing is written unless every entry is valid.
func Append(path string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating learn log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening learn log: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("opening learn log: %w", err)
	}

	cw := csv.NewWriter(f)
	if fi.Size() == 0 {
		cw.Write(columns)
	}
	for _, e := range entries {
		cw.Write(e.record())
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing learn log: %w", err)
	}
	return nil
}

// Read returns all entries in path. A missing file has no entries.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening learn log: %w", err)
	}
	defer f.Close()

	entries, err := readEntries(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return entries, nil
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(columns)

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !slices.Equal(head, columns) {
		return nil, fmt.Errorf("unexpected header %q", strings.Join(head, ","))
	}

	var entries []Entry
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		e, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
}

// Summary counts entries per action.
type Summary map[categories.Action]int

// Total is the number of entries summarised.
func (s Summary) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// Summarize counts entries per action.
func Summarize(entries []Entry) Summary {
	s := Summary{}
	for _, e := range entries {
		s[e.Action]++
	}
	return s
}

// Recorder collects categorizer events for one run and writes them on Flush.
type Recorder struct {
	RunID string
	Now   func() time.Time

	mu      sync.Mutex
	pending []Entry
}

// NewRecorder creates a Recorder stamping entries with runID.
func NewRecorder(runID string) *Recorder {
	return &Recorder{RunID: runID, Now: time.Now}
}

// Record queues one event. It matches categories.WithEventHandler.
func (r *Recorder) Record(e categories.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, Entry{
		Time:  r.Now().UTC().Truncate(time.Second),
		RunID: r.RunID,
		Event: e,
	})
}

// Pending returns the queued entries.
func (r *Recorder) Pending() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.pending)
}

// Flush appends queued entries to path and clears the queue on success.
func (r *Recorder) Flush(path string) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := Append(path, r.pending); err != nil {
		return nil, err
	}
	s := Summarize(r.pending)
	r.pending = nil
	return s, nil
}
