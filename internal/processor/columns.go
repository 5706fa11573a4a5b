package processor

import (
	"strings"

	"conversation-insights-go/internal/types"
)

type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindTime
)

// Column is a canonical column and the cell value used when a sheet lacks it.
type Column struct {
	Name    string
	Kind    Kind
	Default string
}

// Columns is the canonical column set, in output order.
var Columns = []Column{
	{"conversation_id", KindString, ""},
	{"created_at", KindTime, ""},
	{"updated_at", KindTime, ""},
	{"status", KindString, string(types.StatusUnknown)},
	{"priority", KindString, string(types.PriorityMedium)},
	{"channel", KindString, "unknown"},
	{"visitor_id", KindString, ""},
	{"agent_id", KindString, ""},
	{"frustration_level", KindNumber, "0"},
	{"first_response_time", KindNumber, "0"},
	{"resolution_time", KindNumber, "0"},
	{"message_count", KindNumber, "0"},
	{"satisfaction_score", KindNumber, "0"},
	{"total_duration", KindNumber, "0"},
	{"response_time_avg", KindNumber, "0"},
	{"resolved", KindBool, "false"},
	{"escalated_to_human", KindBool, "false"},
	{"mentions_product", KindBool, "false"},
	{"mentions_price", KindBool, "false"},
	{"mentions_quantity", KindBool, "false"},
	{"context_sentiment", KindString, ""},
	{"lead_stage", KindString, string(types.StageNew)},
	{"lead_score", KindNumber, "0"},
	{"lead_qualified_date", KindTime, ""},
	{"lead_converted_date", KindTime, ""},
	{"contact_name", KindString, ""},
	{"contact_email", KindString, ""},
	{"contact_phone", KindString, ""},
}

var columnIndex = func() map[string]int {
	m := make(map[string]int, len(Columns))
	for i, c := range Columns {
		m[c.Name] = i
	}
	return m
}()

// headerAliases maps localized sheet headers onto canonical names. An alias is
// ignored when the sheet already carries the canonical column.
var headerAliases = map[string]string{
	"nome_cliente":      "contact_name",
	"cliente_nome":      "contact_name",
	"telefone_cliente":  "contact_phone",
	"data_contato":      "created_at",
	"canal_origem":      "channel",
	"agent_responsavel": "agent_id",
	"status_conversa":   "status",
	"nivel_frustracao":  "frustration_level",
}

// NormalizedTable holds string cells laid out in Columns order.
type NormalizedTable struct {
	Rows          [][]string
	SourceColumns map[string]bool
	BlankRows     int
}

// Value returns the cell of a canonical column in a normalized row.
func Value(row []string, name string) string {
	i, ok := columnIndex[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func headerKey(h string) string {
	k := strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(k), "_")
}

// NormalizeColumns renames aliased headers, drops blank rows, pads or truncates
// ragged rows and fills canonical columns the sheet lacks with their defaults.
// The input table is not modified.
func NormalizeColumns(raw types.RawTable) NormalizedTable {
	src := make(map[string]int, len(raw.Header))
	for i, h := range raw.Header {
		k := headerKey(h)
		if _, ok := columnIndex[k]; !ok {
			continue
		}
		if _, dup := src[k]; !dup {
			src[k] = i
		}
	}
	for i, h := range raw.Header {
		target, ok := headerAliases[headerKey(h)]
		if !ok {
			continue
		}
		if _, present := src[target]; !present {
			src[target] = i
		}
	}

	out := NormalizedTable{SourceColumns: make(map[string]bool, len(src))}
	for name := range src {
		out.SourceColumns[name] = true
	}

	width := len(raw.Header)
	for _, r := range raw.Rows {
		if blankRow(r) {
			out.BlankRows++
			continue
		}
		cells := make([]string, width)
		copy(cells, r)

		row := make([]string, len(Columns))
		for ci, col := range Columns {
			if i, ok := src[col.Name]; ok {
				row[ci] = cells[i]
			} else {
				row[ci] = col.Default
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func blankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
