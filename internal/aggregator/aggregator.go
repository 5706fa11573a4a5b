package aggregator

import "conversation-insights-go/internal/types"

type Summary struct {
	TotalConversations int     `json:"total_conversations"`
	UniqueContacts     int     `json:"unique_contacts"`
	ResolutionRate     float64 `json:"resolution_rate"`
	EscalationRate     float64 `json:"escalation_rate"`
	SLAComplianceRate  float64 `json:"sla_compliance_rate"`
	AvgSatisfaction    float64 `json:"avg_satisfaction"`
	AvgResponseTime    float64 `json:"avg_response_time"`
	AvgResolutionTime  float64 `json:"avg_resolution_time"`
	HotLeads           int     `json:"hot_leads_count"`

	ByChannel     map[string]int `json:"channels"`
	ByStatus      map[string]int `json:"statuses"`
	ByLeadStage   map[string]int `json:"lead_stages"`
	ByPriority    map[string]int `json:"priorities"`
	BySentiment   map[string]int `json:"sentiments"`
	ByFrustration map[string]int `json:"frustration_categories"`
	ByHour        map[int]int    `json:"by_hour"`
	ByDate        map[string]int `json:"by_date"`
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func mean(sum float64, total int) float64 {
	if total == 0 {
		return 0
	}
	return sum / float64(total)
}

// Aggregate computes the dashboard statistics of a filtered table. Rates are
// fractions in [0,1]; every rate and mean of an empty table is 0.
func Aggregate(records []types.ConversationRecord) Summary {
	s := Summary{
		ByChannel:     map[string]int{},
		ByStatus:      map[string]int{},
		ByLeadStage:   map[string]int{},
		ByPriority:    map[string]int{},
		BySentiment:   map[string]int{},
		ByFrustration: map[string]int{},
		ByHour:        map[int]int{},
		ByDate:        map[string]int{},
	}
	contacts := map[string]bool{}
	var resolved, escalated, withinSLA int
	var satisfaction, response, resolution float64
	for _, r := range records {
		if r.IsResolved {
			resolved++
		}
		if r.NeedsHuman || r.EscalatedToHuman {
			escalated++
		}
		if r.SLAStatus == types.SLAWithin {
			withinSLA++
		}
		if r.IsHotLead {
			s.HotLeads++
		}
		if r.ContactName != "" {
			contacts[r.ContactName] = true
		}
		satisfaction += r.SatisfactionScore
		response += r.FirstResponseTime
		resolution += r.ResolutionTime

		s.ByChannel[r.Channel]++
		s.ByStatus[string(r.Status)]++
		s.ByLeadStage[string(r.LeadStage)]++
		s.ByPriority[string(r.Priority)]++
		s.BySentiment[string(r.ContextSentiment)]++
		s.ByFrustration[r.FrustrationCategory]++
		s.ByHour[r.HourOfDay]++
		s.ByDate[r.Date]++
	}

	n := len(records)
	s.TotalConversations = n
	s.UniqueContacts = len(contacts)
	s.ResolutionRate = rate(resolved, n)
	s.EscalationRate = rate(escalated, n)
	s.SLAComplianceRate = rate(withinSLA, n)
	s.AvgSatisfaction = mean(satisfaction, n)
	s.AvgResponseTime = mean(response, n)
	s.AvgResolutionTime = mean(resolution, n)
	return s
}
