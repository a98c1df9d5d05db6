package logging

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	"go.uber.org/zap"
)

const traceparentHeader = "traceparent"

// W3C Trace Context: {version}-{trace-id}-{parent-id}-{trace-flags}
var traceparentRe = regexp.MustCompile(`^([0-9a-fA-F]{2})-([0-9a-fA-F]{32})-([0-9a-fA-F]{16})-([0-9a-fA-F]{2})$`)

var (
	projectIDOnce   sync.Once
	cachedProjectID string
)

// traceContext is the parsed form of a traceparent header.
type traceContext struct {
	traceID string
	spanID  string
	sampled bool
}

func parseTraceparent(header string) (traceContext, bool) {
	m := traceparentRe.FindStringSubmatch(header)
	if len(m) != 5 {
		return traceContext{}, false
	}
	return traceContext{traceID: m[2], spanID: m[3], sampled: m[4] == "01"}, true
}

func (tc traceContext) resource(projectID string) string {
	return fmt.Sprintf("projects/%s/traces/%s", projectID, tc.traceID)
}

// traceFields returns Cloud Logging trace correlation fields, or nil when either input is unusable.
func traceFields(header, projectID string) []zap.Field {
	if projectID == "" {
		return nil
	}
	tc, ok := parseTraceparent(header)
	if !ok {
		return nil
	}
	return []zap.Field{
		zap.String("logging.googleapis.com/trace", tc.resource(projectID)),
		zap.String("logging.googleapis.com/spanId", tc.spanID),
		zap.Bool("logging.googleapis.com/trace_sampled", tc.sampled),
	}
}

func traceResource(header, projectID string) string {
	if projectID == "" {
		return ""
	}
	tc, ok := parseTraceparent(header)
	if !ok {
		return ""
	}
	return tc.resource(projectID)
}

func loggerWithTrace(base *zap.Logger, header, projectID, requestID string) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	fields := traceFields(header, projectID)
	if requestID != "" {
		fields = append(fields, zap.String("requestId", requestID))
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

func resolveProjectID() string {
	projectIDOnce.Do(func() {
		for _, key := range []string{"GOOGLE_CLOUD_PROJECT", "GCP_PROJECT", "GCLOUD_PROJECT", "PROJECT_ID"} {
			if v := os.Getenv(key); v != "" {
				cachedProjectID = v
				return
			}
		}
	})
	return cachedProjectID
}
