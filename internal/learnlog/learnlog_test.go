package learnlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennywise-dev/pennywise/internal/categories"
)

var testTime = time.Date(2024, 2, 5, 9, 15, 0, 0, time.UTC)

func learned(keyword string) Entry {
	return Entry{
		Time:  testTime,
		RunID: "run-1",
		Event: categories.Event{
			Action:   categories.ActionLearn,
			Account:  "FlexDirect",
			Category: "Income",
			Keyword:  keyword,
		},
	}
}

func TestAppend_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "learned.csv")
	require.NoError(t, Append(path, []Entry{learned("FREELANCE INVOICE 42")}))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, learned("FREELANCE INVOICE 42"), entries[0])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Header+"\n2024-02-05T09:15:00Z,run-1,learn,FlexDirect,Income,FREELANCE INVOICE 42\n", string(data))
}

func TestAppend_ExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "learned.csv")
	require.NoError(t, Append(path, []Entry{learned("SALARY")}))

	declined := learned("ONE OFF, WITH COMMA")
	declined.Action = categories.ActionDecline
	require.NoError(t, Append(path, []Entry{declined}))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, categories.ActionLearn, entries[0].Action)
	assert.Equal(t, categories.ActionDecline, entries[1].Action)
	assert.Equal(t, "ONE OFF, WITH COMMA", entries[1].Keyword)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Header))
}

func TestAppend_NothingToWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "learned.csv")
	require.NoError(t, Append(path, nil))
	_, err := os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAppend_InvalidEntryWritesNothing(t *testing.T) {
	created := learned("")
	created.Action = categories.ActionCreateCategory
	created.Category = "Pets"

	tests := []struct {
		name string
		bad  Entry
		want string
	}{
		{"learn without keyword", learned("  "), "has no keyword"},
		{"unknown action", func() Entry { e := learned("X"); e.Action = "forget"; return e }(), `unknown action "forget"`},
		{"no category", func() Entry { e := learned("X"); e.Category = ""; return e }(), "has no category"},
		{"create with keyword", func() Entry { e := created; e.Keyword = "VETS"; return e }(), "has a keyword"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "learned.csv")
			err := Append(path, []Entry{created, tt.bad})
			assert.ErrorContains(t, err, tt.want)
			_, err = os.Stat(path)
			assert.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}

func TestRead_Missing(t *testing.T) {
	entries, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"wrong header", "when,who,what,account,category,keyword\n", "unexpected header"},
		{"bad timestamp", Header + "\nyesterday,r,learn,A,Income,X\n", `line 2: parsing timestamp "yesterday"`},
		{"unknown action", Header + "\n2024-02-05T09:15:00Z,r,forget,A,Income,X\n", `line 2: unknown action "forget"`},
		{"short row", Header + "\n2024-02-05T09:15:00Z,r,learn\n", "wrong number of fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "learned.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := Read(path)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "learned.csv")
	rec := NewRecorder("run-7")
	rec.Now = func() time.Time { return testTime.Add(500 * time.Millisecond) }

	rec.Record(categories.Event{Action: categories.ActionCreateCategory, Account: "Amex", Category: "Pets"})
	rec.Record(categories.Event{Action: categories.ActionLearn, Account: "Amex", Category: "Pets", Keyword: "PETS AT HOME"})
	require.Len(t, rec.Pending(), 2)

	sum, err := rec.Flush(path)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total())
	assert.Equal(t, 1, sum[categories.ActionCreateCategory])
	assert.Equal(t, 0, sum[categories.ActionDecline])
	assert.Empty(t, rec.Pending())

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, categories.ActionCreateCategory, entries[0].Action)
	assert.Equal(t, "run-7", entries[1].RunID)
	assert.Equal(t, "PETS AT HOME", entries[1].Keyword)
	assert.Equal(t, testTime, entries[1].Time)
}

func TestRecorder_FailedFlushKeepsPending(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	rec := NewRecorder("run-8")
	rec.Record(categories.Event{Action: categories.ActionDecline, Account: "Amex", Category: "Travel", Keyword: "TFL"})

	_, err := rec.Flush(filepath.Join(blocker, "learned.csv"))
	require.Error(t, err)
	assert.Len(t, rec.Pending(), 1)
}
