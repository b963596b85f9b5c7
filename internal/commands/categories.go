package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCategoriesCommand(configPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect and edit the category keyword store",
	}
	cmd.PersistentFlags().StringVar(&file, "file", "", "categories file (default: categories_file from the config)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories and their keywords in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := loadStore(*configPath, file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, c := range store.Categories() {
				fmt.Fprintf(out, "%3d. %s", i+1, c.Name)
				if len(c.Keywords) > 0 {
					fmt.Fprintf(out, ": %s", strings.Join(c.Keywords, ", "))
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <category> [keyword...]",
		Short: "Create a category and/or add keywords to it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadStore(*configPath, file)
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			out := cmd.OutOrStdout()

			created, err := store.AddCategory(name)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(out, "Created category %s\n", name)
			}
			for _, kw := range args[1:] {
				added, err := store.Learn(name, kw)
				if err != nil {
					return err
				}
				if added {
					fmt.Fprintf(out, "Added %q to %s\n", kw, name)
				} else {
					fmt.Fprintf(out, "%q is already a keyword of %s\n", kw, name)
				}
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "match <description>",
		Short: "Show which categories a description matches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadStore(*configPath, file)
			if err != nil {
				return err
			}
			desc := strings.Join(args, " ")
			matches := store.Matches(desc)
			out := cmd.OutOrStdout()
			switch len(matches) {
			case 0:
				fmt.Fprintln(out, "no match")
			case 1:
				fmt.Fprintln(out, matches[0])
			default:
				fmt.Fprintf(out, "%s (also matches: %s)\n", matches[0], strings.Join(matches[1:], ", "))
			}
			return nil
		},
	})

	return cmd
}
