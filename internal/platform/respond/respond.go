// Package respond renders RFC 9457 problem details for requests the router
// cannot serve, and recovers handler panics into the same format.
package respond

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	applog "github.com/janisto/greeting-service/internal/platform/logging"
)

const (
	contentTypeProblemJSON = "application/problem+json"
	contentTypeProblemCBOR = "application/problem+cbor"

	msgNotFound          = "resource not found"
	msgInternalServerErr = "internal server error"
)

// NotFoundHandler answers unmatched paths with a 404 problem.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteProblem(w, r, http.StatusNotFound, msgNotFound)
	}
}

// MethodNotAllowedHandler answers a known path with an unsupported method with a 405 problem
// and an Allow header listing the methods the router does match.
func MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if allow := allowedMethods(r); len(allow) > 0 {
			w.Header().Set("Allow", strings.Join(allow, ", "))
		}
		WriteProblem(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", r.Method))
	}
}

// Recoverer converts handler panics into 500 problems. If the handler already
// started the response the original output is left untouched.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				applog.LogError(r.Context(), "panic recovered", panicError(rec),
					zap.ByteString("stack", debug.Stack()))
				if rw.wroteHeader {
					return
				}
				WriteProblem(rw, r, http.StatusInternalServerError, msgInternalServerErr)
			}()
			next.ServeHTTP(rw, r)
		})
	}
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("%v", rec)
}

// WriteProblem writes a problem-details body in JSON or CBOR depending on the request's Accept header.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	problem := &huma.ErrorModel{
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}
	logProblem(r, problem)

	contentType := contentTypeProblemJSON
	body, err := encodeJSON(problem)
	if selectFormat(r.Header.Get("Accept")) {
		contentType = contentTypeProblemCBOR
		body, err = cbor.Marshal(problem)
	}
	if err != nil {
		applog.LogError(r.Context(), "failed to encode problem", err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	h := w.Header()
	ensureVary(h, "Origin", "Accept")
	h.Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		applog.LogError(r.Context(), "failed to write problem", err)
	}
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func logProblem(r *http.Request, p *huma.ErrorModel) {
	fields := []zap.Field{
		zap.Int("status", p.Status),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if p.Status >= http.StatusInternalServerError {
		applog.LogError(r.Context(), p.Detail, nil, fields...)
		return
	}
	applog.LogWarn(r.Context(), p.Detail, fields...)
}

// ensureVary appends values to the Vary header, skipping tokens already present.
func ensureVary(h http.Header, values ...string) {
	seen := make(map[string]struct{})
	for _, existing := range h.Values("Vary") {
		for part := range strings.SplitSeq(existing, ",") {
			if token := strings.TrimSpace(part); token != "" {
				seen[strings.ToLower(token)] = struct{}{}
			}
		}
	}
	for _, v := range values {
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		h.Add("Vary", v)
	}
}

// allowedMethods asks chi's route tree which methods match the request path.
func allowedMethods(r *http.Request) []string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.Routes == nil {
		return nil
	}

	routePath := rctx.RoutePath
	if routePath == "" {
		routePath = r.URL.RawPath
		if routePath == "" {
			routePath = r.URL.Path
		}
		if routePath == "" {
			routePath = "/"
		}
	}

	var allowed []string
	for _, method := range []string{
		http.MethodGet,
		http.MethodHead,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodOptions,
	} {
		if rctx.Routes.Match(chi.NewRouteContext(), method, routePath) {
			allowed = append(allowed, method)
		}
	}
	return allowed
}

// responseWriter records whether the response has started.
type responseWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
