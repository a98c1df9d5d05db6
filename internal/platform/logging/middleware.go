package logging

import (
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestLogger stores a request-scoped logger carrying the request id and trace metadata.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(traceparentHeader)
			projectID := resolveProjectID()
			reqID := chimiddleware.GetReqID(r.Context())

			traceID := traceResource(header, projectID)
			if traceID == "" {
				traceID = reqID
			}
			ctx := withTraceID(r.Context(), traceID)
			ctx = WithLogger(ctx, loggerWithTrace(Logger(), header, projectID, reqID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// httpRequest is the Cloud Logging HttpRequest payload for one exchange.
type httpRequest struct {
	method    string
	url       string
	status    int
	size      int
	userAgent string
	remoteIP  string
	protocol  string
	latency   time.Duration
}

func (h httpRequest) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("requestMethod", h.method)
	enc.AddString("requestUrl", h.url)
	enc.AddInt("status", h.status)
	enc.AddString("responseSize", strconv.Itoa(h.size))
	if h.userAgent != "" {
		enc.AddString("userAgent", h.userAgent)
	}
	enc.AddString("remoteIp", h.remoteIP)
	enc.AddString("protocol", h.protocol)
	// Cloud Logging expects a proto3 Duration string.
	enc.AddString("latency", strconv.FormatFloat(h.latency.Seconds(), 'f', -1, 64)+"s")
	return nil
}

// AccessLogger writes one "request completed" entry per request through the
// request-scoped logger. Server errors log at error level, client errors at
// warning, everything else at info.
func AccessLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			entry := httpRequest{
				method:    r.Method,
				url:       r.URL.RequestURI(),
				status:    status,
				size:      ww.BytesWritten(),
				userAgent: r.UserAgent(),
				remoteIP:  r.RemoteAddr,
				protocol:  r.Proto,
				latency:   time.Since(start),
			}

			logger := LoggerFromContext(r.Context())
			field := zap.Object("httpRequest", entry)
			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("request completed", field)
			case status >= http.StatusBadRequest:
				logger.Warn("request completed", field)
			default:
				logger.Info("request completed", field)
			}
		})
	}
}
