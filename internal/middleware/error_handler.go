package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"motorplus/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func internalError(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, &apierror.APIError{Detail: "Error interno del servidor", Code: apierror.KindInternal})
}

// ErrorHandler answers errors attached with c.Error when the handler wrote
// nothing. A classified *apierror.Error keeps its kind and status; anything
// else is logged and becomes a generic 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var domain *apierror.Error
		if errors.As(err, &domain) && domain.Kind != apierror.KindInternal {
			if !c.Writer.Written() {
				c.AbortWithStatusJSON(apierror.Status(domain.Kind), apierror.FromError(domain))
			}
			return
		}

		log.Error().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("path", c.FullPath()).
			Str("method", c.Request.Method).
			Err(err).
			Msg("unhandled error")
		if !c.Writer.Written() {
			internalError(c)
		}
	}
}

// Recovery turns a panic into a 500. The stack is logged, never sent.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Str("path", c.Request.URL.Path).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				internalError(c)
			}
		}()
		c.Next()
	}
}

// Logger writes one line per request. 5xx log at Error, 4xx at Warn.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		default:
			ev = log.Info()
		}
		if claims := GetClaims(c); claims != nil {
			ev = ev.Str("user", claims.Username)
		}
		ev.Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("client_ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
