// Package httpapi is the JSON API behind the browser dashboard.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"conversation-insights-go/internal/actionable"
	"conversation-insights-go/internal/auth"
	"conversation-insights-go/internal/chatvolt"
	"conversation-insights-go/internal/dataset"
	"conversation-insights-go/internal/export"
	"conversation-insights-go/internal/filter"
	"conversation-insights-go/internal/logger"
	"conversation-insights-go/internal/pipeline"
	"conversation-insights-go/internal/sheets"
	"conversation-insights-go/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Dashboard interface {
	Run(ctx context.Context, req pipeline.Request) pipeline.Result
	Raw(ctx context.Context, sheetID string) (types.RawTable, error)
	Refresh(clientID string) int
}

type Authenticator interface {
	Authenticate(ctx context.Context, clientID, token string) (auth.Tenant, error)
}

type SheetInspector interface {
	Info(ctx context.Context, spreadsheetID string) (sheets.Info, error)
}

type Conversations interface {
	GetConversation(ctx context.Context, id string) (chatvolt.Conversation, error)
	GetAgent(ctx context.Context, id string) (chatvolt.Agent, error)
	GetConversationMessages(ctx context.Context, id string) ([]chatvolt.Message, error)
	SetConversationVariable(ctx context.Context, conversationID, name, value string) (map[string]any, error)
}

// Deps wires the server. Inspector and Chat are optional.
type Deps struct {
	Dashboard     Dashboard
	Auth          Authenticator
	Sessions      *auth.Sessions
	Inspector     SheetInspector
	Chat          Conversations
	Location      *time.Location
	Targets       actionable.Targets
	MaxExportRows int
	SecureCookies bool
	Now           func() time.Time
}

type Server struct {
	d Deps
}

func New(d Deps) *Server {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.MaxExportRows <= 0 {
		d.MaxExportRows = export.DefaultMaxRows
	}
	return &Server{d: d}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/login", s.login)
	r.POST("/logout", requireSession(s.d.Sessions), s.logout)

	api := r.Group("/api", requireSession(s.d.Sessions))
	api.GET("/conversations", s.conversations)
	api.GET("/summary", s.summary)
	api.GET("/filters", s.filterOptions)
	api.GET("/validation", s.validation)
	api.GET("/sheet", s.sheetInfo)
	api.POST("/refresh", s.refresh)
	api.GET("/export.csv", s.exportCSV)
	api.GET("/export.xlsx", s.exportXLSX)
	api.GET("/conversations/:id", s.conversation)
	api.GET("/conversations/:id/messages", s.messages)
	api.GET("/agents/:id", s.agent)
	api.POST("/conversations/:id/variables", s.setVariable)
	return r
}

func fail(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

type loginRequest struct {
	ClientID string `json:"client_id" binding:"required"`
	Token    string `json:"token" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "client_id and token are required")
		return
	}
	tenant, err := s.d.Auth.Authenticate(c.Request.Context(), req.ClientID, req.Token)
	switch {
	case errors.Is(err, auth.ErrLockedOut):
		fail(c, http.StatusTooManyRequests, err.Error())
		return
	case errors.Is(err, auth.ErrRegistryUnavailable):
		fail(c, http.StatusServiceUnavailable, "client registry unavailable")
		return
	case err != nil:
		fail(c, http.StatusUnauthorized, err.Error())
		return
	}

	tok, exp, err := s.d.Sessions.Issue(tenant)
	if err != nil {
		logger.New().WithError(err).Error("issue session failed")
		fail(c, http.StatusInternalServerError, "could not create session")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, tok, int(s.d.Sessions.TTL().Seconds()), "/", "", s.d.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{
		"token":       tok,
		"expires_at":  exp,
		"client_id":   tenant.ClientID,
		"client_name": tenant.ClientName,
	})
}

func (s *Server) logout(c *gin.Context) {
	claims := claimsFrom(c)
	n := s.d.Dashboard.Refresh(claims.ClientID())
	c.SetCookie(sessionCookie, "", -1, "/", "", s.d.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{"logged_out": true, "invalidated": n})
}

func (s *Server) today() time.Time {
	return s.d.Now().In(s.d.Location)
}

func (s *Server) run(c *gin.Context) pipeline.Result {
	claims := claimsFrom(c)
	return s.d.Dashboard.Run(c.Request.Context(), pipeline.Request{
		ClientID: claims.ClientID(),
		SheetID:  claims.SheetID,
		Filter:   filter.FromQuery(c.Request.URL.Query(), s.today()),
	})
}

func (s *Server) conversations(c *gin.Context) {
	c.JSON(http.StatusOK, s.run(c))
}

func (s *Server) summary(c *gin.Context) {
	res := s.run(c)
	c.JSON(http.StatusOK, gin.H{
		"summary":             res.Summary,
		"actions":             actionable.Generate(res.Summary, s.d.Targets),
		"total_before_filter": res.Total,
		"warnings":            res.Warnings,
	})
}

func (s *Server) filterOptions(c *gin.Context) {
	claims := claimsFrom(c)
	res := s.d.Dashboard.Run(c.Request.Context(), pipeline.Request{ClientID: claims.ClientID(), SheetID: claims.SheetID})
	c.JSON(http.StatusOK, filter.AvailableOptions(res.Table))
}

func (s *Server) validation(c *gin.Context) {
	raw, err := s.d.Dashboard.Raw(c.Request.Context(), claimsFrom(c).SheetID)
	if err != nil {
		logger.New().WithError(err).Warn("validation fetch failed")
		fail(c, http.StatusBadGateway, "data source unavailable")
		return
	}
	c.JSON(http.StatusOK, dataset.Validate(raw))
}

func (s *Server) sheetInfo(c *gin.Context) {
	if s.d.Inspector == nil {
		fail(c, http.StatusNotFound, "spreadsheet info not available for this source")
		return
	}
	info, err := s.d.Inspector.Info(c.Request.Context(), claimsFrom(c).SheetID)
	if err != nil {
		fail(c, http.StatusBadGateway, "data source unavailable")
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) refresh(c *gin.Context) {
	n := s.d.Dashboard.Refresh(claimsFrom(c).ClientID())
	c.JSON(http.StatusOK, gin.H{"invalidated": n})
}

func (s *Server) exportCSV(c *gin.Context) {
	res := s.run(c)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="conversas.csv"`)
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, res.Records, s.d.MaxExportRows); err != nil {
		logger.New().WithError(err).Error("csv export failed")
	}
}

func (s *Server) exportXLSX(c *gin.Context) {
	res := s.run(c)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="conversas.xlsx"`)
	c.Status(http.StatusOK)
	if err := export.WriteXLSX(c.Writer, res.Records, s.d.MaxExportRows); err != nil {
		logger.New().WithError(err).Error("xlsx export failed")
	}
}

func (s *Server) chatError(c *gin.Context, err error) {
	var se *chatvolt.StatusError
	switch {
	case errors.Is(err, chatvolt.ErrNotConfigured):
		fail(c, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &se) && se.Code == http.StatusNotFound:
		fail(c, http.StatusNotFound, "conversation not found")
	default:
		fail(c, http.StatusBadGateway, "chatvolt unavailable")
	}
}

func (s *Server) conversation(c *gin.Context) {
	if s.d.Chat == nil {
		s.chatError(c, chatvolt.ErrNotConfigured)
		return
	}
	conv, err := s.d.Chat.GetConversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) agent(c *gin.Context) {
	if s.d.Chat == nil {
		s.chatError(c, chatvolt.ErrNotConfigured)
		return
	}
	a, err := s.d.Chat.GetAgent(c.Request.Context(), c.Param("id"))
	if err != nil {
		var se *chatvolt.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			fail(c, http.StatusNotFound, "agent not found")
			return
		}
		s.chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) messages(c *gin.Context) {
	if s.d.Chat == nil {
		s.chatError(c, chatvolt.ErrNotConfigured)
		return
	}
	msgs, err := s.d.Chat.GetConversationMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type variableRequest struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value"`
}

func (s *Server) setVariable(c *gin.Context) {
	if s.d.Chat == nil {
		s.chatError(c, chatvolt.ErrNotConfigured)
		return
	}
	var req variableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "name is required")
		return
	}
	out, err := s.d.Chat.SetConversationVariable(c.Request.Context(), c.Param("id"), req.Name, req.Value)
	if err != nil {
		s.chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
