package filter

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"conversation-insights-go/internal/types"
)

const (
	PresetLast7     = "Últimos 7 dias"
	PresetLast30    = "Últimos 30 dias"
	PresetThisMonth = "Este mês"
	PresetCustom    = "Personalizado"
)

var Presets = []string{PresetLast7, PresetLast30, PresetThisMonth, PresetCustom}

// DateRange resolves a preset against today. PresetCustom uses the given
// bounds, falling back to the 30 day window for a missing one. Unknown presets
// behave like PresetLast30.
func DateRange(preset string, today time.Time, from, to *time.Time) (time.Time, time.Time) {
	today = dayStart(today)
	switch preset {
	case PresetLast7:
		return today.AddDate(0, 0, -7), today
	case PresetThisMonth:
		return today.AddDate(0, 0, 1-today.Day()), today
	case PresetCustom:
		start, end := today.AddDate(0, 0, -30), today
		if from != nil {
			start = dayStart(*from)
		}
		if to != nil {
			end = dayStart(*to)
		}
		return start, end
	default:
		return today.AddDate(0, 0, -30), today
	}
}

// Options lists the selectable values present in a table, each list led by "Todos".
type Options struct {
	Channels     []string `json:"channels"`
	Statuses     []string `json:"statuses"`
	LeadStages   []string `json:"lead_stages"`
	Agents       []string `json:"agents"`
	Satisfaction []string `json:"satisfaction"`
	DatePresets  []string `json:"date_presets"`
}

func distinct(values map[string]bool) []string {
	out := make([]string, 0, len(values)+1)
	for v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return append([]string{"Todos"}, out...)
}

func AvailableOptions(t types.Table) Options {
	channels, statuses, stages, agents := map[string]bool{}, map[string]bool{}, map[string]bool{}, map[string]bool{}
	for _, r := range t.Records {
		channels[r.Channel] = true
		statuses[string(r.Status)] = true
		stages[string(r.LeadStage)] = true
		agents[r.AgentID] = true
	}
	return Options{
		Channels:     distinct(channels),
		Statuses:     distinct(statuses),
		LeadStages:   distinct(stages),
		Agents:       distinct(agents),
		Satisfaction: []string{"Todos", SatisfactionHigh, SatisfactionMedium, SatisfactionLow},
		DatePresets:  Presets,
	}
}

func parseDate(s string, loc *time.Location) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return nil
	}
	return &t
}

// FromQuery builds a Config from HTTP query parameters. Malformed numeric or
// date values leave their filter unset.
func FromQuery(q url.Values, today time.Time) Config {
	loc := today.Location()
	c := Config{
		Channel:      q.Get("channel"),
		Status:       q.Get("status"),
		LeadStage:    q.Get("lead_stage"),
		Satisfaction: q.Get("satisfaction"),
		Agent:        q.Get("agent"),
	}

	from, to := parseDate(q.Get("date_start"), loc), parseDate(q.Get("date_end"), loc)
	preset := strings.TrimSpace(q.Get("date_preset"))
	switch {
	case preset != "":
		start, end := DateRange(preset, today, from, to)
		c.DateStart, c.DateEnd = &start, &end
	default:
		c.DateStart, c.DateEnd = from, to
	}

	if v, err := strconv.ParseFloat(q.Get("response_time_max"), 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		c.ResponseTimeMax = &v
	}
	if v, err := strconv.Atoi(q.Get("min_messages")); err == nil {
		c.MinMessages = &v
	}
	if v, err := strconv.Atoi(q.Get("max_frustration")); err == nil {
		c.MaxFrustration = &v
	}
	return c
}
