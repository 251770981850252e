package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-application-tracker/internal/auth"
	"github.com/justsurfingit/job-application-tracker/internal/domain"
	apperrors "github.com/justsurfingit/job-application-tracker/internal/errors"
	"github.com/justsurfingit/job-application-tracker/internal/services"
)

const (
	ctxToken = "session_token"
	ctxUser  = "session_user"
	ctxStore = "session_store"
)

// RequireSession resolves the bearer token to a user and that session's
// job store.
func RequireSession(authSvc *services.AuthService, sessions *services.SessionManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			respondError(c, logger, apperrors.NotAuthenticated("missing bearer token", nil))
			return
		}

		user, err := authSvc.Me(c.Request.Context(), token)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		store, err := sessions.Store(c.Request.Context(), token)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.Set(ctxToken, token)
		c.Set(ctxUser, user)
		c.Set(ctxStore, store)
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func sessionToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}

func sessionUser(c *gin.Context) *domain.User {
	user, _ := c.MustGet(ctxUser).(*domain.User)
	return user
}

func sessionStore(c *gin.Context) *services.JobStore {
	store, _ := c.MustGet(ctxStore).(*services.JobStore)
	return store
}
