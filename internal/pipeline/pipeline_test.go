package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennywise-dev/pennywise/internal/categories"
	"github.com/pennywise-dev/pennywise/internal/importer"
	"github.com/pennywise-dev/pennywise/internal/model"
)

// storeCategorizer matches against a store and files misses under a
// fallback category, recording every description it saw.
type storeCategorizer struct {
	store    *categories.Store
	fallback string
	seen     []string
	failOn   string
	err      error
}

func (c *storeCategorizer) Categorize(_ context.Context, f model.NormalizedFields) (string, error) {
	c.seen = append(c.seen, f.Description)
	if c.failOn != "" && f.Description == c.failOn {
		return "", c.err
	}
	if name, ok := c.store.Match(f.Description); ok {
		return name, nil
	}
	return c.fallback, nil
}

func newCategorizer(t *testing.T) *storeCategorizer {
	t.Helper()
	s, err := categories.Load("../../testdata/categories.json")
	require.NoError(t, err)
	return &storeCategorizer{store: s, fallback: "Shopping"}
}

// stage copies testdata fixtures into a fresh bank directory.
func stage(t *testing.T, root, bank string, fixtures ...string) string {
	t.Helper()
	dir := filepath.Join(root, bank)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range fixtures {
		data, err := os.ReadFile(filepath.Join("../../testdata", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
	return dir
}

func TestCollect_AllBanks(t *testing.T) {
	root := t.TempDir()
	sources := []Source{
		{Bank: "Nationwide", Dir: stage(t, root, "nationwide", "nationwide.csv")},
		{Bank: "NationwideCreditCard", Dir: stage(t, root, "nationwide-cc", "nationwide_credit_card.csv")},
		{Bank: "Amex", Dir: stage(t, root, "amex", "amex.csv")},
		{Bank: "Starling", Dir: stage(t, root, "starling", "starling.csv")},
	}

	rep, err := New(importer.DefaultRegistry(), newCategorizer(t)).Collect(context.Background(), sources)
	require.NoError(t, err)
	assert.Empty(t, rep.Failures)
	assert.Empty(t, rep.Diagnostics)
	require.Len(t, rep.Files, 4)
	assert.Equal(t, "FlexDirect", rep.Files[0].Account)
	assert.Equal(t, "Nationwide Credit Card", rep.Files[1].Account)

	var got []string
	for _, txn := range rep.Batch {
		got = append(got, txn.Date.Format(model.DateFormat)+" "+txn.Description)
	}
	assert.Equal(t, []string{
		"2024-01-02 TESCO STORES 3217",
		"2024-01-05 ACME LTD SALARY",
		"2024-01-06 SAVINGS POT",
		"2024-01-15 OCTOPUS ENERGY",
		"2024-01-15 WHOLE FOODS",
		"2024-01-20 PAYMENT RECEIVED - THANK YOU",
		"2024-02-01 PRET A MANGER LDN",
		"2024-02-03 AMAZON.CO.UK",
		"2024-02-03 FEB SALARY",
		"2024-02-03 RENT FEB",
		"2024-02-10 PAYMENT RECEIVED",
		"2024-03-02 TRAINLINE.COM",
	}, got)

	byDesc := make(map[string]model.Transaction)
	for _, txn := range rep.Batch {
		byDesc[txn.Description] = txn
	}
	assert.Equal(t, model.KindTransfer, byDesc["PAYMENT RECEIVED - THANK YOU"].Kind)
	assert.Equal(t, "300.00", byDesc["PAYMENT RECEIVED - THANK YOU"].Amount.StringFixed(2))
	assert.Equal(t, model.KindIncome, byDesc["ACME LTD SALARY"].Kind)
	assert.Equal(t, "-1024.50", byDesc["TRAINLINE.COM"].Amount.StringFixed(2))
	assert.Equal(t, "Shopping", byDesc["AMAZON.CO.UK"].Category)
	assert.Equal(t, model.KindExpense, byDesc["AMAZON.CO.UK"].Kind)
}

func TestCollect_UnsupportedBankBeforeIO(t *testing.T) {
	root := t.TempDir()
	cat := newCategorizer(t)
	sources := []Source{
		{Bank: "Monzo", Dir: filepath.Join(root, "does-not-exist")},
		{Bank: "Starling", Dir: stage(t, root, "starling", "starling.csv")},
	}

	rep, err := New(importer.DefaultRegistry(), cat).Collect(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, "Monzo", rep.Failures[0].Bank)

	var ce *importer.ConfigurationError
	require.ErrorAs(t, rep.Failures[0].Err, &ce)
	assert.ErrorIs(t, ce, importer.ErrUnsupportedBank)
	assert.NotErrorIs(t, ce, importer.ErrMissingInputDir)

	assert.Len(t, rep.Batch, 3)
}

func TestCollect_MissingDirIsConfigurationError(t *testing.T) {
	root := t.TempDir()
	sources := []Source{
		{Bank: "Amex", Dir: filepath.Join(root, "amex")},
		{Bank: "Starling", Dir: stage(t, root, "starling", "starling.csv")},
	}

	rep, err := New(importer.DefaultRegistry(), newCategorizer(t)).Collect(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, rep.Failures, 1)

	var ce *importer.ConfigurationError
	require.ErrorAs(t, rep.Failures[0].Err, &ce)
	assert.Equal(t, "Amex", ce.Bank)
	assert.ErrorIs(t, rep.Failures[0].Err, importer.ErrMissingInputDir)
	assert.Len(t, rep.Batch, 3)
}

func TestCollect_EmptyDir(t *testing.T) {
	root := t.TempDir()
	rep, err := New(importer.DefaultRegistry(), newCategorizer(t)).Collect(context.Background(),
		[]Source{{Bank: "Amex", Dir: stage(t, root, "amex")}})
	require.NoError(t, err)
	assert.Empty(t, rep.Batch)
	assert.Empty(t, rep.Failures)
	assert.Empty(t, rep.Files)
}

func TestCollect_MalformedRows(t *testing.T) {
	root := t.TempDir()
	dir := stage(t, root, "nationwide")
	data := "\"Account Name:\",\"FlexDirect ****12345\"\n" +
		"\"a\"\n\"b\"\n\n" +
		"\"Date\",\"Transaction type\",\"Description\",\"Paid out\",\"Paid in\",\"Balance\"\n" +
		"\"02 Jan 2024\",\"Visa purchase\",\"TESCO STORES\",\"£1.00\",\"\",\"\"\n" +
		"\"not a date\",\"Visa purchase\",\"TESCO STORES\",\"£2.00\",\"\",\"\"\n" +
		"\"03 Jan 2024\",\"Info\",\"INTEREST NOTE\",\"\",\"\",\"\"\n" +
		"\"04 Jan 2024\",\"Visa purchase\",\"TESCO STORES\",\"£abc\",\"\",\"\"\n"
	path := filepath.Join(dir, "statement.csv")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	rep, err := New(importer.DefaultRegistry(), newCategorizer(t)).Collect(context.Background(),
		[]Source{{Bank: "Nationwide", Dir: dir}})
	require.NoError(t, err)

	require.Len(t, rep.Batch, 2, "bad date and bad amount are skipped, neither-amount is kept")
	assert.Equal(t, "INTEREST NOTE", rep.Batch[1].Description)
	assert.True(t, rep.Batch[1].Amount.IsZero())
	assert.Equal(t, model.KindExpense, rep.Batch[1].Kind)

	require.Len(t, rep.Diagnostics, 3)
	for _, d := range rep.Diagnostics {
		assert.Equal(t, path, d.File)
	}
	assert.Equal(t, 2, rep.Diagnostics[0].Row)
	assert.Equal(t, 7, rep.Diagnostics[0].Line)
	assert.False(t, rep.Diagnostics[0].Recovered)
	assert.True(t, rep.Diagnostics[1].Recovered)
	assert.ErrorIs(t, rep.Diagnostics[1], importer.ErrNoAmount)
	assert.Equal(t, "Paid out", rep.Diagnostics[2].Field)

	require.Len(t, rep.Files, 1)
	assert.Equal(t, 4, rep.Files[0].Rows)
	assert.Equal(t, 2, rep.Files[0].Transactions)
}

func TestCollect_BadFileSkipped(t *testing.T) {
	root := t.TempDir()
	dir := stage(t, root, "nationwide", "nationwide.csv")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aaa-broken.csv"), []byte("just-one-field\n"), 0o644))

	rep, err := New(importer.DefaultRegistry(), newCategorizer(t)).Collect(context.Background(),
		[]Source{{Bank: "Nationwide", Dir: dir}})
	require.NoError(t, err)

	require.Len(t, rep.Failures, 1)
	assert.Equal(t, filepath.Join(dir, "aaa-broken.csv"), rep.Failures[0].File)
	assert.ErrorIs(t, rep.Failures[0].Err, importer.ErrBadPreamble)
	assert.Len(t, rep.Batch, 4)
	require.Len(t, rep.Files, 1)
	assert.Equal(t, "nationwide.csv", filepath.Base(rep.Files[0].Path))
}

func TestCollect_CategorizerErrorStopsRun(t *testing.T) {
	root := t.TempDir()
	cat := newCategorizer(t)
	cat.failOn = "SAVINGS POT"
	cat.err = categories.ErrInputClosed

	sources := []Source{
		{Bank: "Nationwide", Dir: stage(t, root, "nationwide", "nationwide.csv")},
		{Bank: "Starling", Dir: stage(t, root, "starling", "starling.csv")},
	}
	rep, err := New(importer.DefaultRegistry(), cat).Collect(context.Background(), sources)
	require.Error(t, err)
	assert.True(t, errors.Is(err, categories.ErrInputClosed))
	require.NotNil(t, rep)
	assert.Len(t, rep.Batch, 2)
	assert.Empty(t, rep.Files)
	assert.NotContains(t, cat.seen, "PRET A MANGER LDN")
}

func TestCollect_Cancelled(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(importer.DefaultRegistry(), newCategorizer(t)).Collect(ctx,
		[]Source{{Bank: "Starling", Dir: stage(t, root, "starling", "starling.csv")}})
	assert.ErrorIs(t, err, context.Canceled)
}
