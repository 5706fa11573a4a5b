// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"time"

	"conversation-insights-go/internal/aggregator"
	"conversation-insights-go/internal/cache"
	"conversation-insights-go/internal/dataset"
	"conversation-insights-go/internal/filter"
	"conversation-insights-go/internal/logger"
	"conversation-insights-go/internal/metrics"
	"conversation-insights-go/internal/processor"
	"conversation-insights-go/internal/types"
)

const cachePrefix = "dashboard_data"

type Config struct {
	CacheTTL     time.Duration
	FetchTimeout time.Duration
	Process      processor.Options
}

// Service runs fetch -> process -> filter -> aggregate for a tenant. Processed
// tables are cached per tenant and sheet.
type Service struct {
	source dataset.Source
	cache  *cache.Cache
	cfg    Config
}

func New(source dataset.Source, c *cache.Cache, cfg Config) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	return &Service{source: source, cache: c, cfg: cfg}
}

// tenantKey hashes the client id so one tenant's keys are never a prefix of
// another's (acme vs acme_corp).
func tenantKey(clientID string) string {
	return cache.Key(cachePrefix, map[string]string{"client_id": clientID})
}

// TenantPrefix is the cache key prefix of every entry belonging to clientID.
func TenantPrefix(clientID string) string {
	return tenantKey(clientID) + "_"
}

func cacheKey(clientID, sheetID string) string {
	return cache.Key(tenantKey(clientID), map[string]string{"sheet_id": sheetID})
}

// Load returns the processed table of a tenant. A fetch failure yields an
// empty table and a warning instead of an error.
func (s *Service) Load(ctx context.Context, clientID, sheetID string) (types.Table, []string) {
	log := logger.New().WithTenant(clientID).WithField("component", "pipeline")
	t, err := cache.Fetch(ctx, s.cache, cacheKey(clientID, sheetID), s.cfg.CacheTTL,
		func(ctx context.Context) (types.Table, error) {
			ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
			defer cancel()
			raw, err := s.source.Fetch(ctx, sheetID)
			if err != nil {
				return types.Table{}, err
			}
			return processor.Process(raw, s.cfg.Process), nil
		})
	if err != nil {
		metrics.SourceFailures.WithLabelValues("sheet").Inc()
		log.WithError(err).Error("data source fetch failed, serving empty table")
		return types.Table{SourceColumns: map[string]bool{}}, []string{"data source unavailable"}
	}
	return t, nil
}

// Raw returns the unprocessed sheet of a tenant, bypassing the cache.
func (s *Service) Raw(ctx context.Context, sheetID string) (types.RawTable, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	return s.source.Fetch(ctx, sheetID)
}

type Request struct {
	ClientID string
	SheetID  string
	Filter   filter.Config
}

type Result struct {
	Records  []types.ConversationRecord `json:"records"`
	Total    int                        `json:"total_before_filter"`
	Summary  aggregator.Summary         `json:"summary"`
	Stats    types.ProcessStats         `json:"stats"`
	Warnings []string                   `json:"warnings,omitempty"`
	Table    types.Table                `json:"-"`
}

func (s *Service) Run(ctx context.Context, req Request) Result {
	table, warnings := s.Load(ctx, req.ClientID, req.SheetID)
	filtered := filter.Apply(table, req.Filter)

	outcome := "ok"
	switch {
	case len(warnings) > 0:
		outcome = "source_error"
	case filtered.Len() == 0:
		outcome = "empty"
	}
	metrics.PipelineRuns.WithLabelValues(outcome).Inc()

	return Result{
		Records:  filtered.Records,
		Total:    table.Len(),
		Summary:  aggregator.Aggregate(filtered.Records),
		Stats:    table.Stats,
		Warnings: warnings,
		Table:    table,
	}
}

// Refresh drops every cached table of clientID.
func (s *Service) Refresh(clientID string) int {
	return s.cache.InvalidatePrefix(TenantPrefix(clientID))
}
