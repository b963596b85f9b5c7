package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pennywise-dev/pennywise/internal/archive"
	"github.com/pennywise-dev/pennywise/internal/categories"
	"github.com/pennywise-dev/pennywise/internal/config"
	"github.com/pennywise-dev/pennywise/internal/importer"
	"github.com/pennywise-dev/pennywise/internal/learnlog"
	"github.com/pennywise-dev/pennywise/internal/logger"
	"github.com/pennywise-dev/pennywise/internal/pipeline"
	"github.com/pennywise-dev/pennywise/internal/prompt"
	"github.com/pennywise-dev/pennywise/internal/sink"
)

type runOptions struct {
	configPath string
	dryRun     bool
	noColor    bool
}

func newRunCommand(configPath *string) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import, categorise and deliver every pending statement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.configPath = *configPath
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the batch instead of delivering it")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable coloured prompts")

	return cmd
}

func runRun(cmd *cobra.Command, opts *runOptions) (err error) {
	reg := importer.DefaultRegistry()
	cfg, err := loadConfig(opts.configPath, reg)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	ctx, log, err := newRunContext(cmd.Context(), cfg, cmd.ErrOrStderr(), runID)
	if err != nil {
		return err
	}
	log.Info().Str("config", opts.configPath).Bool("dry_run", opts.dryRun).Msg("run started")

	store, err := categories.Load(cfg.Resolve(cfg.CategoriesFile))
	if err != nil {
		return err
	}

	recorder := learnlog.NewRecorder(runID)
	defer func() {
		if cfg.LearnLog == "" {
			return
		}
		sum, ferr := recorder.Flush(cfg.Resolve(cfg.LearnLog))
		if ferr != nil {
			log.Error().Err(ferr).Msg("writing learn log")
			err = errors.Join(err, ferr)
			return
		}
		if sum.Total() > 0 {
			log.Info().
				Int("learned", sum[categories.ActionLearn]).
				Int("declined", sum[categories.ActionDecline]).
				Int("created", sum[categories.ActionCreateCategory]).
				Msg("learn log updated")
		}
	}()

	terminal := prompt.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout(), opts.noColor)
	categorizer := categories.NewCategorizer(store, terminal, categories.WithEventHandler(recorder.Record))

	sources := make([]pipeline.Source, len(cfg.Banks))
	for i, b := range cfg.Banks {
		sources[i] = pipeline.Source{Bank: b.Name, Dir: cfg.Resolve(b.Dir)}
	}

	rep, err := pipeline.New(reg, categorizer).Collect(ctx, sources)
	if err != nil {
		return fmt.Errorf("assembling batch: %w", err)
	}

	if opts.dryRun {
		if err := printBatch(cmd.OutOrStdout(), rep.Batch); err != nil {
			return err
		}
		return failuresError(rep.Failures)
	}

	if len(rep.Batch) > 0 {
		appender, err := newAppender(ctx, cfg)
		if err != nil {
			return err
		}
		res, err := sink.NewUploader(appender, cfg.Sink.BatchSize, cfg.Sink.Delay).Deliver(ctx, rep.Batch.Rows())
		fmt.Fprintf(cmd.OutOrStdout(), "Delivered %d of %d transactions.\n", res.Delivered, res.Total)
		if err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "No transactions to deliver.")
	}

	if err := archiveFiles(ctx, cfg, rep.Files); err != nil {
		return err
	}
	return failuresError(rep.Failures)
}

func newAppender(ctx context.Context, cfg *config.Config) (sink.Appender, error) {
	switch cfg.Sink.Type {
	case config.SinkSheets:
		return sink.NewSheetsAppender(ctx,
			cfg.Resolve(cfg.Sink.Sheets.CredentialsFile),
			cfg.Sink.Sheets.SpreadsheetID,
			cfg.Sink.Sheets.Worksheet,
		)
	case config.SinkCSV:
		return sink.NewCSVAppender(cfg.Resolve(cfg.Sink.CSV.Path)), nil
	}
	return nil, fmt.Errorf("unknown sink %q", cfg.Sink.Type)
}

// archiveFiles disposes of every fully processed statement. It only runs
// after the whole batch was delivered.
func archiveFiles(ctx context.Context, cfg *config.Config, files []pipeline.FileResult) error {
	log := logger.FromContext(ctx)

	arch, closer, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		return err
	}
	defer closer.Close()

	var errs []error
	for _, f := range files {
		if err := arch.Archive(ctx, f.Dir, f.Path); err != nil {
			log.Error().Err(err).Str("file", filepath.Base(f.Path)).Msg("archiving statement")
			errs = append(errs, err)
			continue
		}
		log.Debug().Str("file", filepath.Base(f.Path)).Str("mode", cfg.Archive.Mode).Msg("archived statement")
	}
	return errors.Join(errs...)
}

func failuresError(failures []pipeline.Failure) error {
	if len(failures) == 0 {
		return nil
	}
	errs := make([]error, len(failures))
	for i, f := range failures {
		errs[i] = f
	}
	return fmt.Errorf("%d bank(s) or file(s) could not be processed: %w", len(failures), errors.Join(errs...))
}
