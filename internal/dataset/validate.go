package dataset

import (
	"fmt"
	"strings"

	"conversation-insights-go/internal/types"
)

var (
	EssentialColumns    = []string{"conversation_id", "created_at", "channel"}
	ImportantColumns    = []string{"status", "lead_stage", "satisfaction_score", "message_count"}
	LeadTrackingColumns = []string{"lead_stage", "lead_qualified_date", "lead_converted_date"}
)

// Report describes how usable a raw sheet is before processing.
type Report struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Info     []string `json:"info"`
}

func missing(header map[string]bool, want []string) []string {
	var out []string
	for _, c := range want {
		if !header[c] {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks a raw sheet for the columns the dashboard depends on.
// Header names are compared as-is after trimming and lower-casing; aliases
// are not resolved here.
func Validate(raw types.RawTable) Report {
	rep := Report{IsValid: true, Errors: []string{}, Warnings: []string{}, Info: []string{}}
	if raw.Empty() {
		rep.IsValid = false
		rep.Errors = append(rep.Errors, "sheet is empty")
		return rep
	}

	header := map[string]bool{}
	for _, h := range raw.Header {
		header[strings.ToLower(strings.TrimSpace(h))] = true
	}

	if m := missing(header, EssentialColumns); len(m) > 0 {
		rep.IsValid = false
		rep.Errors = append(rep.Errors, "missing essential columns: "+strings.Join(m, ", "))
	}
	if m := missing(header, ImportantColumns); len(m) > 0 {
		rep.Warnings = append(rep.Warnings, "missing important columns: "+strings.Join(m, ", "))
	}
	if m := missing(header, LeadTrackingColumns); len(m) > 0 {
		rep.Info = append(rep.Info, "missing lead tracking columns: "+strings.Join(m, ", "))
	}
	rep.Info = append(rep.Info,
		fmt.Sprintf("total rows: %d", len(raw.Rows)),
		fmt.Sprintf("total columns: %d", len(raw.Header)),
	)
	return rep
}
