// Package export writes filtered conversation tables as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"conversation-insights-go/internal/types"
	"github.com/xuri/excelize/v2"
)

const DefaultMaxRows = 50000

type column struct {
	name  string
	value func(r *types.ConversationRecord) string
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

var columns = []column{
	{"conversation_id", func(r *types.ConversationRecord) string { return r.ConversationID }},
	{"created_at", func(r *types.ConversationRecord) string { return formatTime(&r.CreatedAt) }},
	{"updated_at", func(r *types.ConversationRecord) string { return formatTime(r.UpdatedAt) }},
	{"status", func(r *types.ConversationRecord) string { return string(r.Status) }},
	{"priority", func(r *types.ConversationRecord) string { return string(r.Priority) }},
	{"channel", func(r *types.ConversationRecord) string { return r.Channel }},
	{"agent_id", func(r *types.ConversationRecord) string { return r.AgentID }},
	{"contact_name", func(r *types.ConversationRecord) string { return r.ContactName }},
	{"contact_email", func(r *types.ConversationRecord) string { return r.ContactEmail }},
	{"contact_phone", func(r *types.ConversationRecord) string { return r.ContactPhone }},
	{"frustration_level", func(r *types.ConversationRecord) string { return strconv.Itoa(r.FrustrationLevel) }},
	{"frustration_category", func(r *types.ConversationRecord) string { return r.FrustrationCategory }},
	{"first_response_time", func(r *types.ConversationRecord) string { return formatFloat(r.FirstResponseTime) }},
	{"resolution_time", func(r *types.ConversationRecord) string { return formatFloat(r.ResolutionTime) }},
	{"sla_status", func(r *types.ConversationRecord) string { return r.SLAStatus }},
	{"message_count", func(r *types.ConversationRecord) string { return strconv.Itoa(r.MessageCount) }},
	{"satisfaction_score", func(r *types.ConversationRecord) string { return formatFloat(r.SatisfactionScore) }},
	{"resolved", func(r *types.ConversationRecord) string { return strconv.FormatBool(r.Resolved) }},
	{"escalated_to_human", func(r *types.ConversationRecord) string { return strconv.FormatBool(r.EscalatedToHuman) }},
	{"is_resolved", func(r *types.ConversationRecord) string { return strconv.FormatBool(r.IsResolved) }},
	{"needs_human", func(r *types.ConversationRecord) string { return strconv.FormatBool(r.NeedsHuman) }},
	{"context_sentiment", func(r *types.ConversationRecord) string { return string(r.ContextSentiment) }},
	{"lead_score", func(r *types.ConversationRecord) string { return strconv.Itoa(r.LeadScore) }},
	{"lead_stage", func(r *types.ConversationRecord) string { return string(r.LeadStage) }},
	{"is_hot_lead", func(r *types.ConversationRecord) string { return strconv.FormatBool(r.IsHotLead) }},
}

// Header returns the export column names in order.
func Header() []string {
	h := make([]string, len(columns))
	for i, c := range columns {
		h[i] = c.name
	}
	return h
}

func row(r *types.ConversationRecord) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.value(r)
	}
	return out
}

func limit(records []types.ConversationRecord, maxRows int) []types.ConversationRecord {
	if maxRows > 0 && len(records) > maxRows {
		return records[:maxRows]
	}
	return records
}

// WriteCSV writes a UTF-8, comma separated file with a header row.
func WriteCSV(w io.Writer, records []types.ConversationRecord, maxRows int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range limit(records, maxRows) {
		if err := cw.Write(row(&r)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

const xlsxSheet = "Conversas"

func WriteXLSX(w io.Writer, records []types.ConversationRecord, maxRows int) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	write := func(n int, cells []string) error {
		cell, err := excelize.CoordinatesToCellName(1, n)
		if err != nil {
			return err
		}
		vals := make([]interface{}, len(cells))
		for i, c := range cells {
			vals[i] = c
		}
		return f.SetSheetRow(xlsxSheet, cell, &vals)
	}

	if err := write(1, Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range limit(records, maxRows) {
		if err := write(i+2, row(&r)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
