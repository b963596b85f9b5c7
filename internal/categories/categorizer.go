package categories

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennywise-dev/pennywise/internal/logger"
	"github.com/pennywise-dev/pennywise/internal/model"
)

// Unmatched is what the operator sees when no keyword matched.
type Unmatched struct {
	Account     string
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Categories  []string
}

// Prompter is the operator-facing side of the resolution protocol.
// Ask returns io.EOF when input is exhausted.
type Prompter interface {
	Present(u Unmatched) error
	Ask(question string) (string, error)
	Say(msg string)
}

// Action names a learning decision.
type Action string

const (
	ActionLearn          Action = "learn"
	ActionDecline        Action = "decline"
	ActionCreateCategory Action = "create_category"
)

// ParseAction returns the Action named s.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionLearn, ActionDecline, ActionCreateCategory:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Event records a decision the operator made during resolution.
type Event struct {
	Action   Action
	Account  string
	Category string
	Keyword  string
}

// Prompts.
const (
	QuestionCategory    = "Category number (or n for a new category): "
	QuestionNewCategory = "New category name: "
	QuestionLearn       = "Add %q as a keyword for %s? [Y/N]: "
)

type state int

const (
	statePresenting state = iota
	stateAwaitingCategorySelection
	stateAwaitingNewCategory
	stateAwaitingLearnDecision
	stateResolved
)

func (s state) String() string {
	switch s {
	case statePresenting:
		return "presenting"
	case stateAwaitingCategorySelection:
		return "awaiting-category-selection"
	case stateAwaitingNewCategory:
		return "awaiting-new-category"
	case stateAwaitingLearnDecision:
		return "awaiting-learn-decision"
	case stateResolved:
		return "resolved"
	}
	return "unknown"
}

// Categorizer assigns categories from a Store, falling back to the operator.
type Categorizer struct {
	store    *Store
	prompter Prompter
	onEvent  func(Event)
}

// Option configures a Categorizer.
type Option func(*Categorizer)

// WithEventHandler registers fn to receive every learning decision.
func WithEventHandler(fn func(Event)) Option {
	return func(c *Categorizer) { c.onEvent = fn }
}

// NewCategorizer creates a Categorizer. A nil prompter makes every miss an
// error, which suits non-interactive callers.
func NewCategorizer(store *Store, prompter Prompter, opts ...Option) *Categorizer {
	c := &Categorizer{store: store, prompter: prompter}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the store the categorizer consults.
func (c *Categorizer) Store() *Store { return c.store }

// ErrNoMatch is returned on a miss when there is no prompter.
var ErrNoMatch = errors.New("no category matched")

// Categorize returns the category for f, asking the operator on a miss.
func (c *Categorizer) Categorize(ctx context.Context, f model.NormalizedFields) (string, error) {
	log := logger.FromContext(ctx)

	if matches := c.store.Matches(f.Description); len(matches) > 0 {
		if len(matches) > 1 {
			log.Warn().
				Str("description", f.Description).
				Strs("matches", matches).
				Str("chosen", matches[0]).
				Msg("description matches more than one category")
		}
		return matches[0], nil
	}

	if c.prompter == nil {
		return "", fmt.Errorf("%w: %q", ErrNoMatch, f.Description)
	}
	return c.resolve(ctx, f)
}

// resolve drives the interactive protocol for one unmatched transaction.
func (c *Categorizer) resolve(ctx context.Context, f model.NormalizedFields) (string, error) {
	log := logger.FromContext(ctx)

	var (
		st     = statePresenting
		chosen string
	)
	for st != stateResolved {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		log.Debug().Stringer("state", st).Str("description", f.Description).Msg("resolving")

		switch st {
		case statePresenting:
			err := c.prompter.Present(Unmatched{
				Account:     f.Account,
				Date:        f.Date,
				Amount:      f.Amount,
				Description: f.Description,
				Categories:  c.store.Names(),
			})
			if err != nil {
				return "", fmt.Errorf("presenting transaction: %w", err)
			}
			st = stateAwaitingCategorySelection

		case stateAwaitingCategorySelection:
			answer, err := c.ask(QuestionCategory)
			if err != nil {
				return "", err
			}
			if strings.EqualFold(answer, "n") {
				st = stateAwaitingNewCategory
				continue
			}
			names := c.store.Names()
			idx, err := strconv.Atoi(answer)
			if err != nil || idx < 1 || idx > len(names) {
				c.prompter.Say(fmt.Sprintf("Enter a number between 1 and %d, or n.", len(names)))
				continue
			}
			chosen = names[idx-1]
			st = stateAwaitingLearnDecision

		case stateAwaitingNewCategory:
			answer, err := c.ask(QuestionNewCategory)
			if err != nil {
				return "", err
			}
			if answer == "" {
				c.prompter.Say("Category name cannot be empty.")
				continue
			}
			added, err := c.store.AddCategory(answer)
			if err != nil {
				return "", err
			}
			if added {
				c.emit(Event{Action: ActionCreateCategory, Account: f.Account, Category: answer})
				log.Info().Str("category", answer).Msg("created category")
			}
			chosen = answer
			st = stateAwaitingLearnDecision

		case stateAwaitingLearnDecision:
			// A blank description has nothing to learn from.
			if strings.TrimSpace(f.Description) == "" {
				st = stateResolved
				continue
			}
			answer, err := c.ask(fmt.Sprintf(QuestionLearn, f.Description, chosen))
			if err != nil {
				return "", err
			}
			switch strings.ToUpper(answer) {
			case "Y":
				learned, err := c.store.Learn(chosen, f.Description)
				if err != nil {
					return "", err
				}
				if learned {
					c.emit(Event{Action: ActionLearn, Account: f.Account, Category: chosen, Keyword: f.Description})
					log.Info().Str("category", chosen).Str("keyword", f.Description).Msg("learned keyword")
				}
				st = stateResolved
			case "N":
				c.emit(Event{Action: ActionDecline, Account: f.Account, Category: chosen, Keyword: f.Description})
				st = stateResolved
			default:
				c.prompter.Say("Answer Y or N.")
			}
		}
	}
	return chosen, nil
}

func (c *Categorizer) ask(question string) (string, error) {
	answer, err := c.prompter.Ask(question)
	if errors.Is(err, io.EOF) {
		return "", ErrInputClosed
	}
	if err != nil {
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

func (c *Categorizer) emit(e Event) {
	if c.onEvent != nil {
		c.onEvent(e)
	}
}
