package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/justsurfingit/job-application-tracker/internal/errors"
	"github.com/justsurfingit/job-application-tracker/internal/repository"
)

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrTypeNotAuthenticated:
		return http.StatusUnauthorized
	case apperrors.ErrTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrTypeConflict:
		return http.StatusConflict
	case apperrors.ErrTypeBackend:
		if errors.Is(err, repository.ErrNotFound) {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": ..., "type": ...}. Internal details are
// logged, never returned.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)

	message := "internal server error"
	var de *apperrors.DomainError
	if errors.As(err, &de) && status != http.StatusInternalServerError {
		message = de.Message
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error": message,
		"type":  apperrors.TypeOf(err),
	})
}

// bindError reports a request that failed gin binding.
func bindError(c *gin.Context, logger *zap.Logger, err error) {
	respondError(c, logger, apperrors.Validation("Invalid request: "+err.Error(), err))
}
