package sink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/pennywise-dev/pennywise/internal/buildinfo"
)

// SheetsAppender appends rows to one worksheet of a Google spreadsheet.
type SheetsAppender struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
}

// NewSheetsAppender connects to the Sheets API. When credentialsFile is
// set it is used as a service-account key; extra options are applied after
// it.
func NewSheetsAppender(ctx context.Context, credentialsFile, spreadsheetID, worksheet string, opts ...option.ClientOption) (*SheetsAppender, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet id is empty")
	}
	all := []option.ClientOption{option.WithUserAgent(buildinfo.UserAgent())}
	if credentialsFile != "" {
		all = append(all,
			option.WithCredentialsFile(credentialsFile),
			option.WithScopes(sheets.SpreadsheetsScope),
		)
	}
	all = append(all, opts...)

	svc, err := sheets.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &SheetsAppender{svc: svc, spreadsheetID: spreadsheetID, worksheet: worksheet}, nil
}

// AppendRows appends rows below the worksheet's existing data. Values are
// entered as if typed so dates and amounts become native cell types.
func (s *SheetsAppender) AppendRows(ctx context.Context, rows [][]string) error {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}

	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.worksheet, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return classifyError(err)
}

// classifyError maps quota failures onto ErrQuotaExceeded.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	if strings.Contains(err.Error(), "Quota exceeded") {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return fmt.Errorf("appending to sheet: %w", err)
}
