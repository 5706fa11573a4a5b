// Package filter applies the dashboard's user-selected predicates to a
// processed conversation table.
package filter

import (
	"strings"
	"time"

	"conversation-insights-go/internal/types"
)

const (
	SatisfactionHigh   = "Alta (4-5)"
	SatisfactionMedium = "Média (3)"
	SatisfactionLow    = "Baixa (1-2)"
)

// statusLabels maps the UI labels onto canonical statuses.
var statusLabels = map[string]types.Status{
	"Resolvido":     types.StatusResolved,
	"Não Resolvido": types.StatusUnresolved,
	"Requer Humano": types.StatusHumanRequested,
}

// Config is a filter selection. Zero values, "Todos" and "All" are no-ops.
// All set filters are AND-combined.
type Config struct {
	DateStart *time.Time `json:"date_start,omitempty"`
	DateEnd   *time.Time `json:"date_end,omitempty"`

	Channel      string `json:"channel,omitempty"`
	Status       string `json:"status,omitempty"`
	LeadStage    string `json:"lead_stage,omitempty"`
	Satisfaction string `json:"satisfaction,omitempty"`
	Agent        string `json:"agent,omitempty"`

	// ResponseTimeMax is in minutes; records store seconds.
	ResponseTimeMax *float64 `json:"response_time_max,omitempty"`
	MinMessages     *int     `json:"min_messages,omitempty"`
	MaxFrustration  *int     `json:"max_frustration,omitempty"`
}

func isAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "todos") || strings.EqualFold(v, "todas") || strings.EqualFold(v, "all")
}

// predicate is tagged with the source column it reads. Fields that are always
// derived (status, lead stage) carry no tag and are never skipped.
type predicate struct {
	column string
	match  func(r *types.ConversationRecord) bool
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (c Config) predicates() []predicate {
	var ps []predicate
	if c.DateStart != nil {
		from := dayStart(*c.DateStart)
		ps = append(ps, predicate{"created_at", func(r *types.ConversationRecord) bool {
			return !r.CreatedAt.Before(from)
		}})
	}
	if c.DateEnd != nil {
		until := dayStart(*c.DateEnd).AddDate(0, 0, 1)
		ps = append(ps, predicate{"created_at", func(r *types.ConversationRecord) bool {
			return r.CreatedAt.Before(until)
		}})
	}
	if !isAll(c.Channel) {
		want := strings.ToLower(strings.TrimSpace(c.Channel))
		ps = append(ps, predicate{"channel", func(r *types.ConversationRecord) bool {
			return r.Channel == want
		}})
	}
	if !isAll(c.Status) {
		want, ok := statusLabels[c.Status]
		if !ok {
			want = types.Status(c.Status)
		}
		ps = append(ps, predicate{"", func(r *types.ConversationRecord) bool {
			return r.Status == want
		}})
	}
	if !isAll(c.LeadStage) {
		want := types.LeadStage(strings.ToLower(strings.TrimSpace(c.LeadStage)))
		ps = append(ps, predicate{"", func(r *types.ConversationRecord) bool {
			return r.LeadStage == want
		}})
	}
	if !isAll(c.Satisfaction) {
		if match := satisfactionBucket(c.Satisfaction); match != nil {
			ps = append(ps, predicate{"satisfaction_score", match})
		}
	}
	if !isAll(c.Agent) {
		ps = append(ps, predicate{"agent_id", func(r *types.ConversationRecord) bool {
			return r.AgentID == c.Agent
		}})
	}
	if c.ResponseTimeMax != nil {
		maxSeconds := *c.ResponseTimeMax * 60
		ps = append(ps, predicate{"first_response_time", func(r *types.ConversationRecord) bool {
			return r.FirstResponseTime <= maxSeconds
		}})
	}
	if c.MinMessages != nil && *c.MinMessages > 0 {
		minimum := *c.MinMessages
		ps = append(ps, predicate{"message_count", func(r *types.ConversationRecord) bool {
			return r.MessageCount >= minimum
		}})
	}
	if c.MaxFrustration != nil {
		maximum := *c.MaxFrustration
		ps = append(ps, predicate{"frustration_level", func(r *types.ConversationRecord) bool {
			return r.FrustrationLevel <= maximum
		}})
	}
	return ps
}

// satisfactionBucket accepts the full UI label or just its first word.
func satisfactionBucket(label string) func(r *types.ConversationRecord) bool {
	word := strings.ToLower(strings.Fields(label)[0])
	switch word {
	case "alta":
		return func(r *types.ConversationRecord) bool { return r.SatisfactionScore >= 4 }
	case "média", "media":
		return func(r *types.ConversationRecord) bool { return r.SatisfactionScore == 3 }
	case "baixa":
		return func(r *types.ConversationRecord) bool { return r.SatisfactionScore <= 2 }
	}
	return nil
}

// Apply returns the records of t that satisfy every set filter. A filter on a
// raw column that was absent from the source sheet is skipped. t is not modified.
func Apply(t types.Table, c Config) types.Table {
	var active []predicate
	for _, p := range c.predicates() {
		if p.column == "" || t.HasColumn(p.column) {
			active = append(active, p)
		}
	}

	out := t
	out.Records = make([]types.ConversationRecord, 0, len(t.Records))
	for i := range t.Records {
		r := &t.Records[i]
		keep := true
		for _, p := range active {
			if !p.match(r) {
				keep = false
				break
			}
		}
		if keep {
			out.Records = append(out.Records, *r)
		}
	}
	return out
}
