// Package config reads and writes pennywise.yaml, the run configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pennywise-dev/pennywise/internal/importer"
)

// FileName is the default config file name.
const FileName = "pennywise.yaml"

// Sink types.
const (
	SinkSheets = "sheets"
	SinkCSV    = "csv"
)

// Archive modes.
const (
	ArchiveNone   = "none"
	ArchiveMove   = "move"
	ArchiveDelete = "delete"
	ArchiveGCS    = "gcs"
)

// Config represents the top-level pennywise.yaml configuration.
type Config struct {
	CategoriesFile string        `yaml:"categories_file"`
	LearnLog       string        `yaml:"learn_log,omitempty"`
	Banks          []BankDir     `yaml:"banks"`
	Sink           SinkConfig    `yaml:"sink"`
	Archive        ArchiveConfig `yaml:"archive"`
	Log            LogConfig     `yaml:"log"`

	// baseDir anchors relative paths; it is the directory of the loaded file.
	baseDir string
}

// BankDir maps a bank adapter to the directory holding its statements.
// List order is processing order.
type BankDir struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir"`
}

// SinkConfig controls chunked delivery.
type SinkConfig struct {
	Type      string        `yaml:"type"`
	BatchSize int           `yaml:"batch_size"`
	Delay     time.Duration `yaml:"delay"`
	Sheets    SheetsConfig  `yaml:"sheets"`
	CSV       CSVConfig     `yaml:"csv"`
}

// SheetsConfig identifies the target spreadsheet.
type SheetsConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	Worksheet       string `yaml:"worksheet"`
}

// CSVConfig is the local export file.
type CSVConfig struct {
	Path string `yaml:"path"`
}

// ArchiveConfig controls what happens to statements after delivery.
type ArchiveConfig struct {
	Mode   string `yaml:"mode"`
	Dir    string `yaml:"dir,omitempty"`
	Bucket string `yaml:"bucket,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
}

// LogConfig sets the logger level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a pennywise.yaml file from disk. Relative paths in it are
// resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	cfg.Banks = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.baseDir = filepath.Dir(path)
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project. It
// exports to CSV; switching to sheets needs a spreadsheet_id.
func Default() *Config {
	return &Config{
		CategoriesFile: "categories.json",
		LearnLog:       filepath.Join("logs", "learned-keywords.csv"),
		Banks: []BankDir{
			{Name: "Nationwide", Dir: filepath.Join("inputs", "nationwide")},
			{Name: "NationwideCreditCard", Dir: filepath.Join("inputs", "nationwide-credit-card")},
			{Name: "Amex", Dir: filepath.Join("inputs", "amex")},
			{Name: "Starling", Dir: filepath.Join("inputs", "starling")},
		},
		Sink: SinkConfig{
			Type:      SinkCSV,
			BatchSize: 100,
			Delay:     2 * time.Second,
			Sheets: SheetsConfig{
				CredentialsFile: "google_creds.json",
				Worksheet:       "Transactions",
			},
			CSV: CSVConfig{Path: filepath.Join("exports", "transactions.csv")},
		},
		Archive: ArchiveConfig{
			Mode:   ArchiveNone,
			Dir:    "processed",
			Prefix: "statements/",
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Resolve returns p anchored at the config file's directory unless it is
// already absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.baseDir == "" {
		return p
	}
	return filepath.Join(c.baseDir, p)
}

// SetBaseDir sets the directory relative paths are resolved against.
func (c *Config) SetBaseDir(dir string) { c.baseDir = dir }

// Validate checks the configuration against the registered bank adapters.
// Every problem is reported, joined, as ConfigurationErrors.
func (c *Config) Validate(reg *importer.Registry) error {
	var errs []error
	fail := func(bank, reason string, err error) {
		errs = append(errs, &importer.ConfigurationError{Bank: bank, Reason: reason, Err: err})
	}

	if strings.TrimSpace(c.CategoriesFile) == "" {
		fail("", "categories_file", errors.New("must be set"))
	}

	seen := make(map[string]bool)
	for i, b := range c.Banks {
		if _, err := reg.Lookup(b.Name); err != nil {
			errs = append(errs, err)
			continue
		}
		if strings.TrimSpace(b.Dir) == "" {
			fail(b.Name, fmt.Sprintf("banks[%d].dir", i), errors.New("must be set"))
		}
		key := strings.ToLower(b.Name) + "\x00" + filepath.Clean(b.Dir)
		if seen[key] {
			fail(b.Name, fmt.Sprintf("banks[%d]", i), errors.New("duplicate bank directory"))
		}
		seen[key] = true
	}

	switch c.Sink.Type {
	case SinkSheets:
		if c.Sink.Sheets.SpreadsheetID == "" {
			fail("", "sink.sheets.spreadsheet_id", errors.New("must be set"))
		}
		if c.Sink.Sheets.CredentialsFile == "" {
			fail("", "sink.sheets.credentials_file", errors.New("must be set"))
		}
	case SinkCSV:
		if c.Sink.CSV.Path == "" {
			fail("", "sink.csv.path", errors.New("must be set"))
		}
	default:
		fail("", "sink.type", fmt.Errorf("unknown sink %q (want sheets or csv)", c.Sink.Type))
	}
	if c.Sink.BatchSize <= 0 {
		fail("", "sink.batch_size", fmt.Errorf("must be positive, got %d", c.Sink.BatchSize))
	}
	if c.Sink.Delay < 0 {
		fail("", "sink.delay", fmt.Errorf("must not be negative, got %s", c.Sink.Delay))
	}

	switch c.Archive.Mode {
	case "", ArchiveNone, ArchiveDelete:
	case ArchiveMove:
		if c.Archive.Dir == "" {
			fail("", "archive.dir", errors.New("must be set for move"))
		}
	case ArchiveGCS:
		if c.Archive.Bucket == "" {
			fail("", "archive.bucket", errors.New("must be set for gcs"))
		}
	default:
		fail("", "archive.mode", fmt.Errorf("unknown mode %q", c.Archive.Mode))
	}

	return errors.Join(errs...)
}
