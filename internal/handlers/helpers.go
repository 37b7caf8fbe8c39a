package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "gharkharcha/internal/errors"
	"gharkharcha/internal/logger"
	"gharkharcha/internal/models"
	"gharkharcha/internal/services"
)

const dateLayout = "2006-01-02"

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
}

// IDResponse carries the id the store assigned to a new record.
type IDResponse struct {
	ID string `json:"id"`
}

// requireIdentity returns the signed-in identity. When signed out it writes
// a NOT_AUTHENTICATED response and returns false.
func requireIdentity(c *gin.Context, session services.SessionServicer) (*models.Identity, bool) {
	id := session.Identity()
	if id == nil {
		respondWithError(c, apperrors.ErrNotAuthenticated)
		return nil, false
	}
	return id, true
}

// parseDate accepts YYYY-MM-DD or RFC 3339 and returns the calendar date.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("dates must be YYYY-MM-DD or RFC 3339")
	}
	return models.CalendarDate(t), nil
}

// parseDatePtr parses an optional date field.
func parseDatePtr(raw *string, field string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := parseDate(*raw)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+field+": "+err.Error())
	}
	return &t, nil
}

// dateQuery reads an optional date query parameter, falling back to def.
func dateQuery(c *gin.Context, name string, def time.Time) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+name+": "+err.Error())
	}
	return t, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}
