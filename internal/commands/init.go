package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pennywise-dev/pennywise/internal/categories"
	"github.com/pennywise-dev/pennywise/internal/config"
)

// DefaultCategories seeds a new categories file.
var DefaultCategories = []string{
	"Income",
	"Transfer",
	"Groceries",
	"Bills",
	"Eating Out",
	"Shopping",
	"Transport",
	"Other",
}

func newInitCommand() *cobra.Command {
	var format string
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new pennywise workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, format, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized pennywise workspace at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "categories-format", "json", "categories file format (json or yaml)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")

	return cmd
}

func runInit(dir, format string, force bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}

	cfg := config.Default()
	switch format {
	case "json":
	case "yaml", "yml":
		cfg.CategoriesFile = "categories.yaml"
	default:
		return fmt.Errorf("unknown categories format %q (want json or yaml)", format)
	}

	// Create directory structure.
	dirs := []string{"logs", "exports"}
	for _, b := range cfg.Banks {
		dirs = append(dirs, b.Dir)
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Keep an existing categories file; it holds learned keywords.
	storePath := filepath.Join(dir, cfg.CategoriesFile)
	if _, err := os.Stat(storePath); os.IsNotExist(err) {
		store := categories.New()
		for _, name := range DefaultCategories {
			if _, err := store.AddCategory(name); err != nil {
				return err
			}
		}
		store.SetPath(storePath)
		if err := store.Save(); err != nil {
			return fmt.Errorf("writing categories: %w", err)
		}
	}

	// Write .gitignore.
	gitignore := "exports/\ninputs/\nlogs/\ngoogle_creds.json\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	return nil
}
