package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"conversation-insights-go/internal/actionable"
	"conversation-insights-go/internal/auth"
	"conversation-insights-go/internal/cache"
	"conversation-insights-go/internal/chatvolt"
	"conversation-insights-go/internal/config"
	"conversation-insights-go/internal/dataset"
	"conversation-insights-go/internal/httpapi"
	"conversation-insights-go/internal/logger"
	"conversation-insights-go/internal/pipeline"
	"conversation-insights-go/internal/processor"
	"conversation-insights-go/internal/sheets"
	"github.com/gin-gonic/gin"
)

func main() {
	log := logger.New()
	log.WithField("service", "conversation-insights-go").Info("starting service")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if cfg.Environment != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	loc := cfg.Location()

	// spreadsheet source: Google Sheets when credentials exist, else a local workbook
	var source dataset.Source
	var inspector httpapi.SheetInspector
	if cfg.GoogleCredentialsFile != "" {
		src, err := sheets.New(context.Background(), cfg.GoogleCredentialsFile)
		if err != nil {
			log.WithError(err).Fatal("failed to create sheets client")
		}
		source, inspector = src, src
		log.Info("using google sheets source")
	} else {
		source = dataset.WorkbookSource{Path: cfg.DatasetPath}
		log.WithField("dataset_path", cfg.DatasetPath).Info("using local workbook source")
	}

	var registry auth.Registry
	if cfg.TenantsFile != "" {
		registry = auth.FileRegistry{Path: cfg.TenantsFile}
	} else {
		registry = auth.SheetRegistry{Source: source, SheetID: cfg.MasterSheetID}
	}

	svc := pipeline.New(source, cache.New(), pipeline.Config{
		CacheTTL:     cfg.CacheTTL,
		FetchTimeout: cfg.FetchTimeout,
		Process: processor.Options{
			Location:   loc,
			SLASeconds: cfg.SLASeconds,
		},
	})

	deps := httpapi.Deps{
		Dashboard: svc,
		Auth:      auth.NewAuthenticator(registry, cfg.MaxLoginAttempts, cfg.LockoutDuration),
		Sessions:  auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL),
		Inspector: inspector,
		Location:  loc,
		Targets: actionable.Targets{
			ResponseMinutes: cfg.TargetResponseMinutes,
			Satisfaction:    cfg.TargetSatisfaction,
			ResolutionRate:  cfg.TargetResolutionRate,
		},
		MaxExportRows: cfg.MaxExportRows,
		SecureCookies: cfg.Environment != "local",
	}
	if chat := chatvolt.New(cfg.ChatvoltAPIURL, cfg.ChatvoltAPIKey); chat.Configured() {
		deps.Chat = chat
		log.Info("chatvolt api enabled")
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpapi.New(deps).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}
