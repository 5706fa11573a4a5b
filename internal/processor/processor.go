// internal/processor/processor.go
package processor

import (
	"sort"
	"time"

	"conversation-insights-go/internal/logger"
	"conversation-insights-go/internal/metrics"
	"conversation-insights-go/internal/scoring"
	"conversation-insights-go/internal/types"
)

type Options struct {
	Location   *time.Location
	Now        func() time.Time
	SLASeconds float64
	Scorer     *scoring.Scorer
}

// Process runs the normalization pipeline over a raw sheet: column
// normalization, coercion, classification, lead scoring and sentiment. Rows
// without a conversation_id are dropped and the result is sorted newest first.
// It never fails; malformed input degrades to defaults.
func Process(raw types.RawTable, opts Options) types.Table {
	log := logger.New().WithField("component", "processor")
	start := time.Now()

	norm := NormalizeColumns(raw)
	coercer := Coercer{Location: opts.Location, Now: opts.Now, SLASeconds: opts.SLASeconds}
	scorer := scoring.New()
	if opts.Scorer != nil {
		scorer = *opts.Scorer
	}

	out := types.Table{
		SourceColumns: norm.SourceColumns,
		Stats: types.ProcessStats{
			RowsIn:           len(raw.Rows),
			BlankRowsDropped: norm.BlankRows,
		},
	}
	out.Records = make([]types.ConversationRecord, 0, len(norm.Rows))
	for _, row := range norm.Rows {
		rec := coercer.Coerce(row)
		if rec.ConversationID == "" {
			out.Stats.NoIDRowsDropped++
			continue
		}
		Classify(&rec, row)
		scorer.Apply(&rec)
		rec.ContextSentiment = DeriveSentiment(Value(row, "context_sentiment"), rec)
		out.Records = append(out.Records, rec)
	}
	sort.SliceStable(out.Records, func(i, j int) bool {
		return out.Records[i].CreatedAt.After(out.Records[j].CreatedAt)
	})
	out.Stats.RowsOut = len(out.Records)

	metrics.RecordsProcessed.Add(float64(out.Stats.RowsOut))
	metrics.ProcessDuration.Observe(time.Since(start).Seconds())
	log.WithFields(map[string]interface{}{
		"rows_in":       out.Stats.RowsIn,
		"blank_dropped": out.Stats.BlankRowsDropped,
		"no_id_dropped": out.Stats.NoIDRowsDropped,
		"rows_out":      out.Stats.RowsOut,
	}).Info("processing complete")
	return out
}
