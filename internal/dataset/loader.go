package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"conversation-insights-go/internal/logger"
	"conversation-insights-go/internal/types"
	"github.com/xuri/excelize/v2"
)

var ErrNoSheets = errors.New("no sheets")

// Source fetches the raw conversation grid of one tenant. ref identifies the
// tenant's spreadsheet (a Google Sheets id, or ignored for local workbooks).
type Source interface {
	Fetch(ctx context.Context, ref string) (types.RawTable, error)
}

// PreferredSheets are the worksheet titles searched for conversation data, in order.
var PreferredSheets = []string{"Contatos", "Contacts", "Conversas", "Conversations", "Atendimentos", "Sheet1"}

// PickSheet returns the first preferred title present in names, else the first name.
func PickSheet(names []string) string {
	for _, want := range PreferredSheets {
		for _, n := range names {
			if strings.EqualFold(strings.TrimSpace(n), want) {
				return n
			}
		}
	}
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// ToRawTable splits a grid into header and data rows.
func ToRawTable(rows [][]string) types.RawTable {
	if len(rows) == 0 {
		return types.RawTable{}
	}
	return types.RawTable{Header: rows[0], Rows: rows[1:]}
}

// WorkbookSource reads a local xlsx export of the conversations sheet.
type WorkbookSource struct {
	Path string
}

func (s WorkbookSource) Fetch(ctx context.Context, _ string) (types.RawTable, error) {
	log := logger.New().WithField("component", "dataset.workbook").WithField("path", s.Path)
	if err := ctx.Err(); err != nil {
		return types.RawTable{}, err
	}
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return types.RawTable{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheet := PickSheet(f.GetSheetList())
	if sheet == "" {
		return types.RawTable{}, ErrNoSheets
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return types.RawTable{}, fmt.Errorf("read rows: %w", err)
	}
	raw := ToRawTable(rows)
	log.WithField("sheet", sheet).WithField("rows", len(raw.Rows)).Info("workbook loaded")
	return raw, nil
}
