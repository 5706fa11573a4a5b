package actionable

import (
	"fmt"

	"conversation-insights-go/internal/aggregator"
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// Targets are the KPI goals the dashboard tracks.
type Targets struct {
	ResponseMinutes float64 `json:"response_minutes"`
	Satisfaction    float64 `json:"satisfaction"`
	ResolutionRate  float64 `json:"resolution_rate"`
}

var DefaultTargets = Targets{ResponseMinutes: 5, Satisfaction: 4.0, ResolutionRate: 0.9}

func Generate(s aggregator.Summary, t Targets) []ActionCard {
	if s.TotalConversations == 0 {
		return []ActionCard{{
			Insight: "No conversations in the selected period",
			Action:  "Widen the date range or check the data source",
			Impact:  "None",
		}}
	}
	var cards []ActionCard
	if minutes := s.AvgResponseTime / 60; minutes > t.ResponseMinutes {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("Average first response %.1f min exceeds the %.0f min target", minutes, t.ResponseMinutes),
			Action:  "Review agent coverage at peak hours and automate first replies",
			Impact:  "Faster responses raise lead scores and SLA compliance",
		})
	}
	if s.AvgSatisfaction < t.Satisfaction {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("Average satisfaction %.1f is below %.1f", s.AvgSatisfaction, t.Satisfaction),
			Action:  "Audit low-rated conversations and update the playbook",
			Impact:  "Satisfaction is the largest single lead score signal",
		})
	}
	if s.ResolutionRate < t.ResolutionRate {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("Resolution rate %.0f%% is below the %.0f%% target", s.ResolutionRate*100, t.ResolutionRate*100),
			Action:  "Follow up unresolved conversations and route escalations faster",
			Impact:  "Resolved conversations convert qualified leads",
		})
	}
	if s.HotLeads > 0 {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("%d hot leads in the selected period", s.HotLeads),
			Action:  "Contact hot leads within 24h",
			Impact:  "Highest conversion likelihood",
		})
	}
	if len(cards) == 0 {
		cards = append(cards, ActionCard{
			Insight: "All KPIs within target",
			Action:  "Monitor and collect more data",
			Impact:  "Low immediate intervention",
		})
	}
	return cards
}
