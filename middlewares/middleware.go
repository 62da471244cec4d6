package middlewares

import (
	"context"
	"net/http"
	"time"

	"bitbucket.org/parqueoasis/terminal/config"
	"bitbucket.org/parqueoasis/terminal/metrics"
	"github.com/lithammer/shortuuid/v3"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/negroni"
)

type contextKey string

const (
	loggerKey       contextKey = "logger"
	requestIDHeader            = "X-Request-ID"
)

func LoggerFromRequest(r *http.Request) *log.Entry {
	if r != nil {
		if entry, ok := r.Context().Value(loggerKey).(*log.Entry); ok {
			return entry
		}
	}
	return log.NewEntry(log.StandardLogger())
}

// LoggerRequest attaches a request scoped logger to the request context and
// echoes the request id back to the caller.
func LoggerRequest(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	requestID := r.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = shortuuid.New()
	}
	rw.Header().Set(requestIDHeader, requestID)

	requestLogger := log.WithFields(log.Fields{
		"request_id": requestID,
		"method":     r.Method,
		"url":        r.URL.Path,
		"query":      r.URL.Query(),
		"host":       r.Host,
	})
	requestLogger.Info("logger_request")

	ctx := context.WithValue(r.Context(), loggerKey, requestLogger)
	next(rw, r.WithContext(ctx))
}

// Metrics records request count and latency. It expects to run inside a
// negroni stack so the writer exposes the final status.
func Metrics(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	start := time.Now()
	next(rw, r)

	status := http.StatusOK
	if nrw, ok := rw.(negroni.ResponseWriter); ok && nrw.Status() != 0 {
		status = nrw.Status()
	}
	metrics.ObserveRequest(r.Method, status, time.Since(start).Seconds())
}

// GatewayRequired short-circuits with a fixed 500 when the Stripe client
// failed to initialize.
func GatewayRequired(ctx *config.AppContext) negroni.HandlerFunc {
	return negroni.HandlerFunc(func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		if ctx.Gateway == nil {
			NewResponseWriter(rw, r).Error(http.StatusInternalServerError, Responses.GatewayNotInitialized)
			return
		}
		next(rw, r)
	})
}
