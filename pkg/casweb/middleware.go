package casweb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/platinummonkey/casserver/pkg/authz"
	"github.com/platinummonkey/casserver/pkg/contextkeys"
	"github.com/platinummonkey/casserver/pkg/services"
	"github.com/platinummonkey/casserver/pkg/validation"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// ServiceExtractor resolves the target service of a request, or nil when the
// request names none
type ServiceExtractor func(r *http.Request) *services.Service

// RedirectHolder is the request-scoped authz.RedirectSink
type RedirectHolder struct {
	mu  sync.Mutex
	url *url.URL
	set bool
}

// SetUnauthorizedRedirectURL implements authz.RedirectSink
func (h *RedirectHolder) SetUnauthorizedRedirectURL(u *url.URL) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.url = u
	h.set = true
}

// URL returns the recorded redirect and whether one was recorded
func (h *RedirectHolder) URL() (*url.URL, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.url, h.set
}

var _ authz.RedirectSink = (*RedirectHolder)(nil)

// UnauthorizedRedirectURL returns the redirect recorded for this request, if any
func UnauthorizedRedirectURL(ctx context.Context) *url.URL {
	holder, ok := ctx.Value(contextkeys.RedirectSinkKey).(*RedirectHolder)
	if !ok {
		return nil
	}
	u, _ := holder.URL()
	return u
}

// ServiceAccessMiddleware runs the admission check before the wrapped handler.
// Denied requests are answered with WriteAuthorizationFailure.
func ServiceAccessMiddleware(check *authz.Check, extract ServiceExtractor, builder *validation.ResponseBuilder) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			holder := &RedirectHolder{}
			r = r.WithContext(contextkeys.WithRedirectSink(r.Context(), holder))

			if err := check.Execute(r.Context(), extract(r), holder); err != nil {
				WriteAuthorizationFailure(w, r, builder, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestIDMiddleware assigns every request an id and a logger carrying it
func RequestIDMiddleware(log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ctx := contextkeys.WithRequestID(r.Context(), requestID)
			ctx = contextkeys.WithLogger(ctx, log.WithField("request_id", requestID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		loggerFrom(r.Context()).WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rw.statusCode,
			"duration": time.Since(start),
		}).Info("request completed")
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RecoveryMiddleware recovers from panics and answers with an INTERNAL_ERROR failure
func RecoveryMiddleware(builder *validation.ResponseBuilder) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					loggerFrom(r.Context()).WithFields(logrus.Fields{
						"panic": fmt.Sprint(rec),
						"stack": string(debug.Stack()),
					}).Error("recovered from panic")
					WriteFailure(w, r, builder, http.StatusInternalServerError, validation.FailureInternalError,
						"internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// loggerFrom returns the request logger, or the standard logger outside a request
func loggerFrom(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(contextkeys.LoggerKey).(*logrus.Entry); ok {
		return entry.WithContext(ctx)
	}
	return logrus.NewEntry(logrus.StandardLogger()).WithContext(ctx)
}
