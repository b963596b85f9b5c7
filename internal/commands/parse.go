package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pennywise-dev/pennywise/internal/importer"
	"github.com/pennywise-dev/pennywise/internal/model"
)

func newParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <bank> <file>",
		Short: "Print the normalized rows of one statement without categorising",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], args[1])
		},
	}
}

func runParse(out, errOut io.Writer, bank, path string) error {
	reg := importer.DefaultRegistry()
	ad, err := reg.Lookup(bank)
	if err != nil {
		return fmt.Errorf("%w (known banks: %s)", err, strings.Join(reg.Banks(), ", "))
	}

	stmt, enc, err := importer.OpenFile(ad, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Account: %s (encoding %s)\n", stmt.Account, enc)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tDATE\tAMOUNT\tDESCRIPTION")
	for {
		row, err := stmt.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			tw.Flush()
			return err
		}
		f, err := ad.Fields(row, stmt.Account)
		if err != nil {
			var mre *importer.MalformedRowError
			if !errors.As(err, &mre) {
				tw.Flush()
				return err
			}
			mre.File = path
			fmt.Fprintf(errOut, "warning: %v\n", mre)
			if !mre.Recovered {
				continue
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", row.Index, f.Date.Format(model.DateFormat), f.Amount.StringFixed(2), f.Description)
	}
	return tw.Flush()
}
