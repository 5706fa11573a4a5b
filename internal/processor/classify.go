package processor

import (
	"strings"

	"conversation-insights-go/internal/types"
)

var statusAliases = map[string]types.Status{
	"resolvido":       types.StatusResolved,
	"resolved":        types.StatusResolved,
	"não resolvido":   types.StatusUnresolved,
	"nao resolvido":   types.StatusUnresolved,
	"unresolved":      types.StatusUnresolved,
	"pendente":        types.StatusUnresolved,
	"em andamento":    types.StatusUnresolved,
	"escalado":        types.StatusHumanRequested,
	"human_requested": types.StatusHumanRequested,
	"unknown":         types.StatusUnknown,
}

var channelAliases = map[string]string{
	"zapi":              "whatsapp",
	"whatsapp business": "whatsapp",
	"wa":                "whatsapp",
	"e-mail":            "email",
	"phone":             "telefone",
	"chat":              "chat online",
	"webchat":           "chat online",
}

var priorityAliases = map[string]types.Priority{
	"high":   types.PriorityHigh,
	"alta":   types.PriorityHigh,
	"medium": types.PriorityMedium,
	"média":  types.PriorityMedium,
	"media":  types.PriorityMedium,
	"low":    types.PriorityLow,
	"baixa":  types.PriorityLow,
}

var sentimentAliases = map[string]types.Sentiment{
	"positive": types.SentimentPositive,
	"positivo": types.SentimentPositive,
	"neutral":  types.SentimentNeutral,
	"neutro":   types.SentimentNeutral,
	"negative": types.SentimentNegative,
	"negativo": types.SentimentNegative,
}

// NormalizeStatus maps known aliases to the canonical enum. Blank becomes
// UNKNOWN; anything else passes through upper-cased.
func NormalizeStatus(s string) types.Status {
	k := strings.ToLower(strings.TrimSpace(s))
	if k == "" {
		return types.StatusUnknown
	}
	if st, ok := statusAliases[k]; ok {
		return st
	}
	return types.Status(strings.ToUpper(k))
}

func NormalizeChannel(s string) string {
	k := strings.ToLower(strings.TrimSpace(s))
	if k == "" {
		return "unknown"
	}
	if ch, ok := channelAliases[k]; ok {
		return ch
	}
	return k
}

func NormalizePriority(s string) types.Priority {
	if p, ok := priorityAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p
	}
	return types.PriorityMedium
}

func NormalizeStage(s string) types.LeadStage {
	k := strings.ToLower(strings.TrimSpace(s))
	if k == "" {
		return types.StageNew
	}
	return types.LeadStage(k)
}

// FrustrationCategory buckets a 0-5 frustration level.
func FrustrationCategory(level int) string {
	switch {
	case level <= 0:
		return "Não Informado"
	case level <= 2:
		return "Baixo"
	case level <= 4:
		return "Médio"
	default:
		return "Alto"
	}
}

// Classify fills the categorical fields of r from the normalized row.
func Classify(r *types.ConversationRecord, row []string) {
	r.Status = NormalizeStatus(Value(row, "status"))
	r.IsResolved = r.Status == types.StatusResolved
	r.NeedsHuman = r.Status == types.StatusHumanRequested
	r.Channel = NormalizeChannel(Value(row, "channel"))
	r.Priority = NormalizePriority(Value(row, "priority"))
	r.LeadStage = NormalizeStage(Value(row, "lead_stage"))
	r.FrustrationCategory = FrustrationCategory(r.FrustrationLevel)
}

// DeriveSentiment keeps a recognizable sentiment given by the sheet and
// otherwise infers one from frustration, escalation and satisfaction.
func DeriveSentiment(given string, r types.ConversationRecord) types.Sentiment {
	if s, ok := sentimentAliases[strings.ToLower(strings.TrimSpace(given))]; ok {
		return s
	}
	switch {
	case r.FrustrationLevel > 3 || r.EscalatedToHuman:
		return types.SentimentNegative
	case r.SatisfactionScore >= 4 && r.Resolved:
		return types.SentimentPositive
	case r.SatisfactionScore <= 2:
		return types.SentimentNegative
	default:
		return types.SentimentNeutral
	}
}
