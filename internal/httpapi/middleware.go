package httpapi

import (
	"net/http"
	"strings"
	"time"

	"conversation-insights-go/internal/auth"
	"conversation-insights-go/internal/logger"
	"github.com/gin-gonic/gin"
)

const (
	sessionCookie = "session"
	claimsKey     = "claims"
)

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := logger.RequestID(c.Request)
		c.Request.Header.Set(logger.RequestIDHeader, reqID)
		c.Header(logger.RequestIDHeader, reqID)

		start := time.Now()
		c.Next()
		logger.New().WithRequest(c.Request).
			WithField("status", c.Writer.Status()).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			Info("request handled")
	}
}

func sessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if v, err := c.Cookie(sessionCookie); err == nil {
		return v
	}
	return ""
}

// requireSession is the login gate: requests without a valid session are rejected.
func requireSession(sessions *auth.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := sessionToken(c)
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		claims, err := sessions.Parse(tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *auth.Claims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}
