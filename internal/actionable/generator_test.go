package actionable

import (
	"testing"

	"conversation-insights-go/internal/aggregator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_NoData(t *testing.T) {
	cards := Generate(aggregator.Summary{}, DefaultTargets)
	require.Len(t, cards, 1)
	assert.Contains(t, cards[0].Insight, "No conversations")
}

func TestGenerate_AllWithinTarget(t *testing.T) {
	cards := Generate(aggregator.Summary{
		TotalConversations: 10,
		AvgResponseTime:    60,
		AvgSatisfaction:    4.5,
		ResolutionRate:     0.95,
	}, DefaultTargets)
	require.Len(t, cards, 1)
	assert.Equal(t, "All KPIs within target", cards[0].Insight)
}

func TestGenerate_MissedTargets(t *testing.T) {
	cards := Generate(aggregator.Summary{
		TotalConversations: 10,
		AvgResponseTime:    600,
		AvgSatisfaction:    3.2,
		ResolutionRate:     0.5,
		HotLeads:           2,
	}, DefaultTargets)

	require.Len(t, cards, 4)
	assert.Contains(t, cards[0].Insight, "10.0 min")
	assert.Contains(t, cards[1].Insight, "3.2")
	assert.Contains(t, cards[2].Insight, "50%")
	assert.Contains(t, cards[3].Insight, "2 hot leads")
}
