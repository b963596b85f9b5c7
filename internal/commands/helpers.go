package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/pennywise-dev/pennywise/internal/categories"
	"github.com/pennywise-dev/pennywise/internal/config"
	"github.com/pennywise-dev/pennywise/internal/importer"
	"github.com/pennywise-dev/pennywise/internal/logger"
	"github.com/pennywise-dev/pennywise/internal/model"
)

// loadConfig reads the config file and rejects problems that are not
// confined to a single bank. Bank problems are left for the run to report.
func loadConfig(path string, reg *importer.Registry) (*config.Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w (run pennywise init first)", err)
		}
		return nil, err
	}
	if err := globalErrors(cfg.Validate(reg)); err != nil {
		return nil, err
	}
	return cfg, nil
}

func globalErrors(err error) error {
	if err == nil {
		return nil
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return err
	}
	var keep []error
	for _, e := range joined.Unwrap() {
		var ce *importer.ConfigurationError
		if errors.As(e, &ce) && ce.Bank != "" {
			continue
		}
		keep = append(keep, e)
	}
	return errors.Join(keep...)
}

// newRunContext attaches a logger configured from cfg, writing to w.
func newRunContext(ctx context.Context, cfg *config.Config, w io.Writer, runID string) (context.Context, zerolog.Logger, error) {
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, w)
	if err != nil {
		return ctx, log, err
	}
	if runID != "" {
		log = logger.WithRunID(log, runID)
	}
	return logger.WithContext(ctx, log), log, nil
}

// storePath returns the categories file, preferring an explicit override.
func storePath(configPath, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	cfg, err := loadConfig(configPath, importer.DefaultRegistry())
	if err != nil {
		return "", err
	}
	return cfg.Resolve(cfg.CategoriesFile), nil
}

func loadStore(configPath, override string) (*categories.Store, error) {
	path, err := storePath(configPath, override)
	if err != nil {
		return nil, err
	}
	return categories.Load(path)
}

func printBatch(w io.Writer, batch model.Batch) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tAMOUNT\tDESCRIPTION\tCATEGORY\tKIND\tACCOUNT")
	for _, row := range batch.Rows() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", row[0], row[1], row[2], row[3], row[4], row[5])
	}
	return tw.Flush()
}
