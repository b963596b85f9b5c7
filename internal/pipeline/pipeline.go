// Package pipeline assembles one run's transaction batch from every
// configured bank directory.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pennywise-dev/pennywise/internal/importer"
	"github.com/pennywise-dev/pennywise/internal/logger"
	"github.com/pennywise-dev/pennywise/internal/model"
)

// Source is one bank and the directory its statements are dropped into.
type Source struct {
	Bank string
	Dir  string
}

// Categorizer assigns a category to normalized fields.
type Categorizer interface {
	Categorize(ctx context.Context, f model.NormalizedFields) (string, error)
}

// Failure is a bank or file that could not be processed. Other banks and
// files are unaffected.
type Failure struct {
	Bank string
	File string // empty when the whole bank failed
	Err  error
}

func (f Failure) Error() string {
	if f.File == "" {
		return f.Err.Error()
	}
	return fmt.Sprintf("%s: %v", f.File, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// FileResult summarises one fully consumed statement file.
type FileResult struct {
	Bank         string
	Dir          string
	Path         string
	Encoding     string
	Account      string
	Rows         int
	Transactions int
}

// Report is the outcome of Collect.
type Report struct {
	Batch       model.Batch
	Files       []FileResult
	Diagnostics []*importer.MalformedRowError
	Failures    []Failure
}

// Assembler turns bank directories into a sorted batch.
type Assembler struct {
	registry    *importer.Registry
	categorizer Categorizer
}

// New creates an Assembler.
func New(registry *importer.Registry, categorizer Categorizer) *Assembler {
	return &Assembler{registry: registry, categorizer: categorizer}
}

// Collect processes sources in order, one file and one row at a time.
// Configuration problems and unreadable files are recorded in the report
// and skipped. A categorizer error ends the run: it is returned together
// with the partial report, whose batch holds what was built so far.
func (a *Assembler) Collect(ctx context.Context, sources []Source) (*Report, error) {
	log := logger.FromContext(ctx)
	rep := &Report{}

	// Adapter selection happens for every source before any file is touched.
	adapters := make([]importer.Adapter, len(sources))
	for i, src := range sources {
		ad, err := a.registry.Lookup(src.Bank)
		if err != nil {
			log.Error().Err(err).Str("bank", src.Bank).Msg("skipping bank")
			rep.Failures = append(rep.Failures, Failure{Bank: src.Bank, Err: err})
			continue
		}
		adapters[i] = ad
	}

	var txns []model.Transaction
	defer func() { rep.Batch = model.NewBatch(txns) }()

	for i, src := range sources {
		ad := adapters[i]
		if ad == nil {
			continue
		}

		files, err := importer.Scan(src.Dir)
		if err != nil {
			cerr := &importer.ConfigurationError{Bank: src.Bank, Reason: "scanning input", Err: err}
			log.Error().Err(cerr).Str("bank", src.Bank).Msg("skipping bank")
			rep.Failures = append(rep.Failures, Failure{Bank: src.Bank, Err: cerr})
			continue
		}
		if len(files) == 0 {
			log.Info().Str("bank", src.Bank).Str("dir", src.Dir).Msg("no statements")
			continue
		}

		for _, fi := range files {
			built, res, err := a.collectFile(ctx, ad, src, fi, rep)
			var ferr fileError
			if errors.As(err, &ferr) {
				// Rows from a file that failed part way are dropped.
				log.Error().Err(ferr.err).Str("bank", src.Bank).Str("file", fi.Name).Msg("skipping file")
				rep.Failures = append(rep.Failures, Failure{Bank: src.Bank, File: fi.Path, Err: ferr.err})
				continue
			}
			txns = append(txns, built...)
			if err != nil {
				return rep, err
			}
			rep.Files = append(rep.Files, res)
		}
	}

	log.Info().
		Int("transactions", len(txns)).
		Int("files", len(rep.Files)).
		Int("diagnostics", len(rep.Diagnostics)).
		Int("failures", len(rep.Failures)).
		Msg("batch assembled")
	return rep, nil
}

// fileError marks a failure confined to one statement file.
type fileError struct{ err error }

func (e fileError) Error() string { return e.err.Error() }

func (a *Assembler) collectFile(ctx context.Context, ad importer.Adapter, src Source, fi importer.FileInfo, rep *Report) ([]model.Transaction, FileResult, error) {
	log := logger.FromContext(ctx).With().Str("bank", src.Bank).Str("file", fi.Name).Logger()

	stmt, enc, err := importer.OpenFile(ad, fi.Path)
	if err != nil {
		return nil, FileResult{}, fileError{err}
	}
	log.Debug().Str("encoding", enc).Str("account", stmt.Account).Msg("opened statement")

	res := FileResult{
		Bank:     src.Bank,
		Dir:      src.Dir,
		Path:     fi.Path,
		Encoding: enc,
		Account:  stmt.Account,
	}

	var out []model.Transaction
	for {
		if err := ctx.Err(); err != nil {
			return out, res, err
		}

		row, err := stmt.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, res, fileError{fmt.Errorf("reading %s: %w", fi.Name, err)}
		}
		res.Rows++

		fields, err := ad.Fields(row, stmt.Account)
		if err != nil {
			var mre *importer.MalformedRowError
			if !errors.As(err, &mre) {
				return out, res, fileError{err}
			}
			mre.File = fi.Path
			rep.Diagnostics = append(rep.Diagnostics, mre)
			log.Warn().
				Int("row", mre.Row).
				Int("line", mre.Line).
				Str("field", mre.Field).
				Str("value", mre.Value).
				Bool("recovered", mre.Recovered).
				Err(mre.Err).
				Msg("malformed row")
			if !mre.Recovered {
				continue
			}
		}

		category, err := a.categorizer.Categorize(ctx, fields)
		if err != nil {
			return out, res, fmt.Errorf("categorizing %s row %d: %w", fi.Name, row.Index, err)
		}
		out = append(out, model.Build(fields, category))
		res.Transactions++
	}

	log.Info().Str("account", stmt.Account).Int("rows", res.Rows).Int("transactions", res.Transactions).Msg("statement processed")
	return out, res, nil
}
