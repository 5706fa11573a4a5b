package types

import "time"

// RawTable is a grid of string cells as read from a spreadsheet: a header row
// plus data rows that may be ragged.
type RawTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

func (t RawTable) Empty() bool { return len(t.Header) == 0 || len(t.Rows) == 0 }

type Status string

const (
	StatusResolved       Status = "RESOLVED"
	StatusUnresolved     Status = "UNRESOLVED"
	StatusHumanRequested Status = "HUMAN_REQUESTED"
	StatusUnknown        Status = "UNKNOWN"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

type LeadStage string

const (
	StageNew       LeadStage = "novo"
	StageQualified LeadStage = "qualificado"
	StageConverted LeadStage = "convertido"
	StageLost      LeadStage = "perdido"
)

// Sticky reports whether a stage is terminal and must survive rescoring.
func (s LeadStage) Sticky() bool {
	return s == StageConverted || s == StageLost
}

const (
	SLAWithin   = "within_sla"
	SLAExceeded = "exceeded_sla"
)

// ConversationRecord is one normalized, typed row. Every field is always
// populated after processing; unparseable input becomes the field default.
type ConversationRecord struct {
	ConversationID string     `json:"conversation_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
	Status         Status     `json:"status"`
	Priority       Priority   `json:"priority"`
	Channel        string     `json:"channel"`
	VisitorID      string     `json:"visitor_id,omitempty"`
	AgentID        string     `json:"agent_id,omitempty"`

	FrustrationLevel  int     `json:"frustration_level"`
	FirstResponseTime float64 `json:"first_response_time"`
	ResolutionTime    float64 `json:"resolution_time"`
	TotalDuration     float64 `json:"total_duration"`
	ResponseTimeAvg   float64 `json:"response_time_avg"`
	MessageCount      int     `json:"message_count"`
	SatisfactionScore float64 `json:"satisfaction_score"`

	Resolved         bool      `json:"resolved"`
	EscalatedToHuman bool      `json:"escalated_to_human"`
	IsResolved       bool      `json:"is_resolved"`
	NeedsHuman       bool      `json:"needs_human"`
	MentionsProduct  bool      `json:"mentions_product"`
	MentionsPrice    bool      `json:"mentions_price"`
	MentionsQuantity bool      `json:"mentions_quantity"`
	ContextSentiment Sentiment `json:"context_sentiment"`

	LeadScore         int        `json:"lead_score"`
	LeadStage         LeadStage  `json:"lead_stage"`
	IsHotLead         bool       `json:"is_hot_lead"`
	LeadQualifiedDate *time.Time `json:"lead_qualified_date,omitempty"`
	LeadConvertedDate *time.Time `json:"lead_converted_date,omitempty"`

	ContactName  string `json:"contact_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`

	// derived
	CreatedAtParsed      bool    `json:"created_at_parsed"`
	ResponseTimeMinutes  float64 `json:"response_time_minutes"`
	ResolutionTimeHours  float64 `json:"resolution_time_hours"`
	SLAStatus            string  `json:"sla_status"`
	SatisfactionCategory string  `json:"satisfaction_category"`
	FrustrationCategory  string  `json:"frustration_category"`
	HourOfDay            int     `json:"hour_of_day"`
	DayOfWeek            string  `json:"day_of_week"`
	Date                 string  `json:"date"`
	Week                 int     `json:"week"`
	Month                string  `json:"month"`
}

// Table is the output of a pipeline run.
type Table struct {
	Records []ConversationRecord `json:"records"`
	// SourceColumns holds the canonical columns that were present in the
	// source sheet (after alias renaming), as opposed to defaulted ones.
	SourceColumns map[string]bool `json:"-"`
	Stats         ProcessStats    `json:"stats"`
}

func (t Table) HasColumn(name string) bool {
	if t.SourceColumns == nil {
		return true
	}
	return t.SourceColumns[name]
}

func (t Table) Len() int { return len(t.Records) }

type ProcessStats struct {
	RowsIn           int `json:"rows_in"`
	BlankRowsDropped int `json:"blank_rows_dropped"`
	NoIDRowsDropped  int `json:"no_id_rows_dropped"`
	RowsOut          int `json:"rows_out"`
}
