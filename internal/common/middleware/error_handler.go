package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"twitch-giveaway-backend/internal/common/errors"
	"twitch-giveaway-backend/internal/common/logger"
)

// RequestID assigns every request an id, honoring one supplied by a proxy.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Recovery converts panics into a logged 500 response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := GetRequestID(c)

		logger.Error().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Interface("panic", recovered).
			Str("stack", string(debug.Stack())).
			Msg("Panic recovered")

		appErr := errors.New(errors.ErrCodeInternal, "internal server error").
			WithDetail("panic", fmt.Sprintf("%v", recovered))
		sendErrorResponse(c, appErr)
	})
}

// ErrorHandler renders the first error attached to the gin context using the
// application error taxonomy.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		appErr, ok := errors.AsAppError(err)
		if !ok {
			appErr = errors.Wrap(err, errors.ErrCodeInternal, "internal server error")
		}
		sendErrorResponse(c, appErr)
	}
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Success   bool             `json:"success"`
	Error     *errors.AppError `json:"error"`
	Timestamp time.Time        `json:"timestamp"`
	RequestID string           `json:"request_id"`
	Path      string           `json:"path,omitempty"`
}

func sendErrorResponse(c *gin.Context, appErr *errors.AppError) {
	requestID := GetRequestID(c)
	appErr.WithRequestID(requestID)

	statusCode := httpStatusCode(appErr)

	event := logger.Warn()
	if appErr.IsInternal() {
		event = logger.Error().Err(appErr.Cause)
	}
	event.
		Str("request_id", requestID).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("code", string(appErr.Code)).
		Int("status", statusCode).
		Msg(appErr.Message)

	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Success:   false,
		Error:     appErr,
		Timestamp: time.Now(),
		RequestID: requestID,
		Path:      c.Request.URL.Path,
	})
}

func httpStatusCode(appErr *errors.AppError) int {
	switch {
	case appErr.IsNotFound():
		return http.StatusNotFound
	case appErr.IsConflict():
		return http.StatusConflict
	case appErr.IsValidation():
		return http.StatusBadRequest
	case appErr.Code == errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case appErr.Code == errors.ErrCodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// GetRequestID returns the id assigned by RequestID, or empty.
func GetRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

// RespondError attaches err to the context for ErrorHandler to render.
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)
}
