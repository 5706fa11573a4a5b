package processor

import (
	"testing"

	"conversation-insights-go/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeColumns_FillsDefaults(t *testing.T) {
	norm := NormalizeColumns(types.RawTable{
		Header: []string{"conversation_id"},
		Rows:   [][]string{{"c1"}},
	})

	require.Len(t, norm.Rows, 1)
	row := norm.Rows[0]
	assert.Len(t, row, len(Columns))
	assert.Equal(t, "UNKNOWN", Value(row, "status"))
	assert.Equal(t, "MEDIUM", Value(row, "priority"))
	assert.Equal(t, "unknown", Value(row, "channel"))
	assert.Equal(t, "novo", Value(row, "lead_stage"))
	assert.Equal(t, "0", Value(row, "frustration_level"))
	assert.Equal(t, "false", Value(row, "resolved"))
	assert.Equal(t, "", Value(row, "contact_name"))
	assert.Equal(t, map[string]bool{"conversation_id": true}, norm.SourceColumns)
}

func TestNormalizeColumns_Aliases(t *testing.T) {
	norm := NormalizeColumns(types.RawTable{
		Header: []string{"conversation_id", "Nome_Cliente", "canal_origem", "Status_Conversa", "nivel_frustracao"},
		Rows:   [][]string{{"c1", "Ana", "WhatsApp", "resolvido", "3"}},
	})

	row := norm.Rows[0]
	assert.Equal(t, "Ana", Value(row, "contact_name"))
	assert.Equal(t, "WhatsApp", Value(row, "channel"))
	assert.Equal(t, "resolvido", Value(row, "status"))
	assert.Equal(t, "3", Value(row, "frustration_level"))
	assert.True(t, norm.SourceColumns["channel"])
}

func TestNormalizeColumns_CanonicalBeatsAlias(t *testing.T) {
	norm := NormalizeColumns(types.RawTable{
		Header: []string{"canal_origem", "channel", "conversation_id"},
		Rows:   [][]string{{"from-alias", "from-canonical", "c1"}},
	})
	assert.Equal(t, "from-canonical", Value(norm.Rows[0], "channel"))
}

func TestNormalizeColumns_HeaderWhitespaceAndCase(t *testing.T) {
	norm := NormalizeColumns(types.RawTable{
		Header: []string{" Conversation ID ", "CHANNEL"},
		Rows:   [][]string{{"c1", "email"}},
	})
	assert.Equal(t, "c1", Value(norm.Rows[0], "conversation_id"))
	assert.Equal(t, "email", Value(norm.Rows[0], "channel"))
}

func TestNormalizeColumns_RaggedAndBlankRows(t *testing.T) {
	norm := NormalizeColumns(types.RawTable{
		Header: []string{"conversation_id", "channel", "status"},
		Rows: [][]string{
			{"short"},
			{"long", "email", "resolvido", "extra", "cells"},
			{"", " ", ""},
			{},
		},
	})

	require.Len(t, norm.Rows, 2)
	assert.Equal(t, 2, norm.BlankRows)
	assert.Equal(t, "", Value(norm.Rows[0], "channel"))
	assert.Equal(t, "resolvido", Value(norm.Rows[1], "status"))
}

func TestValue_UnknownColumn(t *testing.T) {
	assert.Equal(t, "", Value([]string{"a"}, "nope"))
	assert.Equal(t, "", Value(nil, "status"))
}
