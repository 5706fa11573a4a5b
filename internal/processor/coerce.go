package processor

import (
	"math"
	"strconv"
	"strings"
	"time"

	"conversation-insights-go/internal/types"
	"github.com/araddon/dateparse"
)

// SheetTimeLayout is the day-first layout the sheets are written with.
const SheetTimeLayout = "02/01/2006 15:04:05"

const DefaultSLASeconds = 300

var truthy = map[string]bool{"true": true, "sim": true, "yes": true, "1": true}

// ParseBool is a case-insensitive membership test against true/sim/yes/1.
func ParseBool(s string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(s))]
}

// ParseNumber parses a decimal cell, accepting a comma decimal separator.
// Blank or unparseable input yields 0.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

func clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}

// Coercer turns normalized string rows into typed records.
type Coercer struct {
	Location   *time.Location
	Now        func() time.Time
	SLASeconds float64
}

func (c Coercer) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c Coercer) now() time.Time {
	if c.Now == nil {
		return time.Now().In(c.loc())
	}
	return c.Now().In(c.loc())
}

// ParseTime tries the sheet layout first and then a flexible day-first parse.
func (c Coercer) ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation(SheetTimeLayout, s, c.loc()); err == nil {
		return t, true
	}
	if t, err := dateparse.ParseIn(s, c.loc(), dateparse.PreferMonthFirst(false)); err == nil {
		return t.In(c.loc()), true
	}
	return time.Time{}, false
}

func (c Coercer) optionalTime(s string) *time.Time {
	t, ok := c.ParseTime(s)
	if !ok {
		return nil
	}
	return &t
}

// Coerce builds a typed record from a normalized row. It never fails: every
// field degrades to its default.
func (c Coercer) Coerce(row []string) types.ConversationRecord {
	v := func(name string) string { return Value(row, name) }

	r := types.ConversationRecord{
		ConversationID: strings.TrimSpace(v("conversation_id")),
		VisitorID:      strings.TrimSpace(v("visitor_id")),
		AgentID:        strings.TrimSpace(v("agent_id")),
		ContactName:    strings.TrimSpace(v("contact_name")),
		ContactEmail:   strings.TrimSpace(v("contact_email")),
		ContactPhone:   strings.TrimSpace(v("contact_phone")),

		FrustrationLevel:  int(clamp(ParseNumber(v("frustration_level")), 0, 5)),
		FirstResponseTime: nonNegative(ParseNumber(v("first_response_time"))),
		ResolutionTime:    nonNegative(ParseNumber(v("resolution_time"))),
		TotalDuration:     nonNegative(ParseNumber(v("total_duration"))),
		ResponseTimeAvg:   nonNegative(ParseNumber(v("response_time_avg"))),
		MessageCount:      int(clamp(ParseNumber(v("message_count")), 0, math.MaxInt32)),
		SatisfactionScore: clamp(ParseNumber(v("satisfaction_score")), 0, 5),
		LeadScore:         int(clamp(ParseNumber(v("lead_score")), 0, 100)),

		Resolved:         ParseBool(v("resolved")),
		EscalatedToHuman: ParseBool(v("escalated_to_human")),
		MentionsProduct:  ParseBool(v("mentions_product")),
		MentionsPrice:    ParseBool(v("mentions_price")),
		MentionsQuantity: ParseBool(v("mentions_quantity")),

		UpdatedAt:         c.optionalTime(v("updated_at")),
		LeadQualifiedDate: c.optionalTime(v("lead_qualified_date")),
		LeadConvertedDate: c.optionalTime(v("lead_converted_date")),
	}

	if t, ok := c.ParseTime(v("created_at")); ok {
		r.CreatedAt = t
		r.CreatedAtParsed = true
		r.HourOfDay = t.Hour()
		r.DayOfWeek = t.Weekday().String()
		r.Date = t.Format(time.DateOnly)
		_, r.Week = t.ISOWeek()
		r.Month = t.Month().String()
	} else {
		// created_at drives every time bucket, so it falls back to now
		now := c.now()
		r.CreatedAt = now
		r.HourOfDay = 12
		r.DayOfWeek = time.Monday.String()
		r.Date = now.Format(time.DateOnly)
		_, r.Week = now.ISOWeek()
		r.Month = now.Month().String()
	}

	sla := c.SLASeconds
	if sla <= 0 {
		sla = DefaultSLASeconds
	}
	r.ResponseTimeMinutes = r.FirstResponseTime / 60
	r.ResolutionTimeHours = r.ResolutionTime / 3600
	if r.FirstResponseTime <= sla {
		r.SLAStatus = types.SLAWithin
	} else {
		r.SLAStatus = types.SLAExceeded
	}
	r.SatisfactionCategory = SatisfactionCategory(r.SatisfactionScore)
	return r
}

// SatisfactionCategory buckets a 0-5 score: [0,2] Baixa, (2,3] Média, (3,5] Alta.
func SatisfactionCategory(score float64) string {
	switch {
	case score <= 2:
		return "Baixa"
	case score <= 3:
		return "Média"
	default:
		return "Alta"
	}
}
