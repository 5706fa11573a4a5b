// Package sheets reads tenant conversation sheets from Google Sheets.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"conversation-insights-go/internal/dataset"
	"conversation-insights-go/internal/logger"
	"conversation-insights-go/internal/types"
	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

type Source struct {
	svc        *sheetsapi.Service
	maxElapsed time.Duration
}

// New builds a read-only client from a service-account credentials file.
func New(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*Source, error) {
	opts = append([]option.ClientOption{
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope),
	}, opts...)
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return NewFromService(svc), nil
}

func NewFromService(svc *sheetsapi.Service) *Source {
	return &Source{svc: svc, maxElapsed: 15 * time.Second}
}

// quoteRange turns a worksheet title into an A1 range covering the whole sheet.
func quoteRange(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// retry runs op with exponential backoff. Client errors other than 429 are
// not retried.
func (s *Source) retry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = s.maxElapsed
	return backoff.Retry(func() error {
		err := op()
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code >= 400 && gerr.Code < 500 && gerr.Code != 429 {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}

func (s *Source) titles(ctx context.Context, spreadsheetID string) (*sheetsapi.Spreadsheet, []string, error) {
	var ss *sheetsapi.Spreadsheet
	err := s.retry(ctx, func() error {
		var err error
		ss, err = s.svc.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	var names []string
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			names = append(names, sh.Properties.Title)
		}
	}
	return ss, names, nil
}

// Fetch reads every value of the preferred worksheet as formatted strings.
func (s *Source) Fetch(ctx context.Context, spreadsheetID string) (types.RawTable, error) {
	log := logger.New().WithField("component", "sheets").WithField("spreadsheet_id", spreadsheetID)
	_, names, err := s.titles(ctx, spreadsheetID)
	if err != nil {
		return types.RawTable{}, err
	}
	title := dataset.PickSheet(names)
	if title == "" {
		return types.RawTable{}, dataset.ErrNoSheets
	}

	var vr *sheetsapi.ValueRange
	err = s.retry(ctx, func() error {
		var err error
		vr, err = s.svc.Spreadsheets.Values.Get(spreadsheetID, quoteRange(title)).
			ValueRenderOption("FORMATTED_VALUE").Context(ctx).Do()
		return err
	})
	if err != nil {
		return types.RawTable{}, fmt.Errorf("read values: %w", err)
	}

	rows := make([][]string, 0, len(vr.Values))
	for _, r := range vr.Values {
		cells := make([]string, len(r))
		for i, c := range r {
			if c != nil {
				cells[i] = fmt.Sprint(c)
			}
		}
		rows = append(rows, cells)
	}
	raw := dataset.ToRawTable(rows)
	log.WithField("sheet", title).WithField("rows", len(raw.Rows)).Info("sheet loaded")
	return raw, nil
}

type Info struct {
	Title      string   `json:"title"`
	ID         string   `json:"id"`
	URL        string   `json:"url"`
	Worksheets []string `json:"worksheets"`
	FetchedAt  string   `json:"last_updated"`
}

func (s *Source) Info(ctx context.Context, spreadsheetID string) (Info, error) {
	ss, names, err := s.titles(ctx, spreadsheetID)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		ID:         ss.SpreadsheetId,
		URL:        ss.SpreadsheetUrl,
		Worksheets: names,
		FetchedAt:  time.Now().Format(time.RFC3339),
	}
	if ss.Properties != nil {
		info.Title = ss.Properties.Title
	}
	return info, nil
}
