package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/logger"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/metrics"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id, puts a request scoped logger
// in the request context and logs the outcome.
func RequestLogger(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		log := base.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), log))

		start := time.Now()
		c.Next()

		event := log.Info()
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			event = log.Error()
		case status >= http.StatusBadRequest:
			event = log.Warn()
		}
		if userID, ok := c.Get(ContextUserID); ok {
			event = event.Interface("user_id", userID)
		}
		event.
			Str("method", c.Request.Method).
			Str("route", route(c)).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Metrics records request counts and latency per route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		path := route(c)
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// Recovery turns a panic into a 500 and logs it with the request logger.
func Recovery(base zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log := logger.FromContext(c.Request.Context(), base)
		log.Error().Interface("panic", recovered).Str("route", route(c)).Msg("panic recovered")
		abort(c, http.StatusInternalServerError, "internal server error")
	})
}

// route keeps metric labels bounded: unmatched paths share one label.
func route(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}
