// Package scoring computes the heuristic lead score, the lead funnel stage and
// the hot-lead flag of a conversation.
package scoring

import "conversation-insights-go/internal/types"

// Rule adds Weight to the score when Match holds. Tiered signals use
// mutually exclusive predicates so every rule is evaluated the same way.
type Rule struct {
	Name   string
	Weight int
	Match  func(r *types.ConversationRecord) bool
}

var preferredChannels = map[string]bool{"whatsapp": true, "telefone": true}

var DefaultRules = []Rule{
	{"engagement_high", 20, func(r *types.ConversationRecord) bool { return r.MessageCount > 10 }},
	{"engagement_medium", 10, func(r *types.ConversationRecord) bool { return r.MessageCount > 5 && r.MessageCount <= 10 }},
	{"satisfaction_high", 25, func(r *types.ConversationRecord) bool { return r.SatisfactionScore >= 4 }},
	{"satisfaction_medium", 10, func(r *types.ConversationRecord) bool { return r.SatisfactionScore >= 3 && r.SatisfactionScore < 4 }},
	{"resolved", 15, func(r *types.ConversationRecord) bool { return r.Resolved }},
	{"response_fast", 20, func(r *types.ConversationRecord) bool { return r.FirstResponseTime <= 60 }},
	{"response_ok", 10, func(r *types.ConversationRecord) bool { return r.FirstResponseTime > 60 && r.FirstResponseTime <= 300 }},
	{"preferred_channel", 10, func(r *types.ConversationRecord) bool { return preferredChannels[r.Channel] }},
	{"frustrated", -15, func(r *types.ConversationRecord) bool { return r.FrustrationLevel > 3 }},
	{"mentions_product", 15, func(r *types.ConversationRecord) bool { return r.MentionsProduct }},
	{"mentions_price", 10, func(r *types.ConversationRecord) bool { return r.MentionsPrice }},
	{"mentions_quantity", 5, func(r *types.ConversationRecord) bool { return r.MentionsQuantity }},
}

const (
	MinScore = 0
	MaxScore = 100
)

// Hit is one rule that contributed to a score.
type Hit struct {
	Rule   string `json:"rule"`
	Weight int    `json:"weight"`
}

type Scorer struct {
	Rules []Rule
}

func New() Scorer { return Scorer{Rules: DefaultRules} }

// Breakdown lists the rules that matched r, in rule order.
func (s Scorer) Breakdown(r *types.ConversationRecord) []Hit {
	var hits []Hit
	for _, rule := range s.Rules {
		if rule.Match(r) {
			hits = append(hits, Hit{Rule: rule.Name, Weight: rule.Weight})
		}
	}
	return hits
}

// Score sums the matching rule weights, clamped to [0,100].
func (s Scorer) Score(r *types.ConversationRecord) int {
	total := 0
	for _, h := range s.Breakdown(r) {
		total += h.Weight
	}
	if total < MinScore {
		return MinScore
	}
	if total > MaxScore {
		return MaxScore
	}
	return total
}

// Stage derives the funnel stage. convertido and perdido are terminal and
// returned unchanged.
func Stage(current types.LeadStage, score int, resolved bool, frustration int) types.LeadStage {
	if current.Sticky() {
		return current
	}
	switch {
	case score >= 70 && resolved:
		return types.StageConverted
	case score >= 50:
		return types.StageQualified
	case score < 20 && frustration > 4:
		return types.StageLost
	default:
		return types.StageNew
	}
}

func HotLead(r *types.ConversationRecord) bool {
	if r.LeadScore >= 80 {
		return true
	}
	return r.LeadScore >= 60 &&
		(r.MessageCount > 8 || r.SatisfactionScore >= 4 || (r.MentionsProduct && r.MentionsPrice))
}

// Apply sets score, stage and hot-lead flag on r.
func (s Scorer) Apply(r *types.ConversationRecord) {
	r.LeadScore = s.Score(r)
	r.LeadStage = Stage(r.LeadStage, r.LeadScore, r.Resolved, r.FrustrationLevel)
	r.IsHotLead = HotLead(r)
}
