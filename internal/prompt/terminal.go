// Package prompt is the terminal side of the category resolution protocol.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/pennywise-dev/pennywise/internal/categories"
	"github.com/pennywise-dev/pennywise/internal/model"
)

// Terminal reads answers line by line from in and writes prompts to out.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer

	header  *color.Color
	date    *color.Color
	amount  *color.Color
	desc    *color.Color
	index   *color.Color
	warning *color.Color
}

var _ categories.Prompter = (*Terminal)(nil)

// NewTerminal creates a Terminal. With plain set, no ANSI colours are written.
func NewTerminal(in io.Reader, out io.Writer, plain bool) *Terminal {
	t := &Terminal{
		in:      bufio.NewReader(in),
		out:     out,
		header:  color.New(color.BgBlue, color.FgWhite),
		date:    color.New(color.BgYellow, color.FgBlack),
		amount:  color.New(color.BgRed, color.FgWhite),
		desc:    color.New(color.BgWhite, color.FgBlack),
		index:   color.New(color.FgCyan),
		warning: color.New(color.FgYellow),
	}
	if plain {
		for _, c := range []*color.Color{t.header, t.date, t.amount, t.desc, t.index, t.warning} {
			c.DisableColor()
		}
	}
	return t
}

// Present shows the unmatched transaction and the numbered category list.
func (t *Terminal) Present(u categories.Unmatched) error {
	fmt.Fprintln(t.out)
	t.header.Fprintf(t.out, " %s ", u.Account)
	t.date.Fprintf(t.out, " %s ", u.Date.Format(model.DateFormat))
	t.amount.Fprintf(t.out, " %9s ", u.Amount.StringFixed(2))
	t.desc.Fprintf(t.out, " %s ", u.Description)
	fmt.Fprintln(t.out)

	if len(u.Categories) == 0 {
		t.warning.Fprintln(t.out, "No categories yet.")
	}
	for i, name := range u.Categories {
		t.index.Fprintf(t.out, "%3d. ", i+1)
		fmt.Fprintln(t.out, name)
	}
	return nil
}

// Ask writes question and returns the next line of input without its line
// ending. It returns io.EOF once input is exhausted.
func (t *Terminal) Ask(question string) (string, error) {
	fmt.Fprint(t.out, question)
	line, err := t.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Say writes a one-line notice.
func (t *Terminal) Say(msg string) {
	t.warning.Fprintln(t.out, msg)
}
