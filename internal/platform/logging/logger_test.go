package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/janisto/greeting-service/internal/platform/timeutil"
)

func resetLogger(t *testing.T) {
	t.Helper()
	reset := func() {
		loggerOnce = sync.Once{}
		baseLogger = nil
		initErr = nil
	}
	reset()
	t.Cleanup(reset)
}

// readFirstLine swaps stdout for a pipe while fn runs and decodes the first
// JSON line written to it.
func readFirstLine(t *testing.T, fn func()) map[string]any {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	fn()
	os.Stdout = orig
	_ = w.Close()
	defer func() { _ = r.Close() }()

	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil {
		t.Fatalf("read log line: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	return entry
}

func TestInitTagsEntries(t *testing.T) {
	resetLogger(t)

	entry := readFirstLine(t, func() {
		if err := Init("1.2.3"); err != nil {
			t.Fatalf("init: %v", err)
		}
		Logger().Warn("bind retry skipped")
		_ = Sync()
	})

	for key, want := range map[string]string{
		"severity": "WARNING",
		"message":  "bind retry skipped",
		"service":  ServiceName,
		"version":  "1.2.3",
	} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %q", key, entry[key], want)
		}
	}
	ts, _ := entry["timestamp"].(string)
	if _, err := time.Parse(timeutil.RFC3339Micros, ts); err != nil {
		t.Errorf("timestamp %q: %v", ts, err)
	}
}

func TestInitOnlyOnce(t *testing.T) {
	resetLogger(t)

	entry := readFirstLine(t, func() {
		_ = Init("first")
		_ = Init("second")
		Logger().Info("ready")
		_ = Sync()
	})
	if entry["version"] != "first" {
		t.Fatalf("expected first Init to win, got %v", entry["version"])
	}
}

func TestLoggerDefaultsToDevVersion(t *testing.T) {
	resetLogger(t)

	entry := readFirstLine(t, func() {
		Logger().Info("ready")
		_ = Sync()
	})
	if entry["version"] != "dev" {
		t.Fatalf("expected version dev, got %v", entry["version"])
	}
}

func TestEncodeSeverity(t *testing.T) {
	tests := map[zapcore.Level]string{
		zapcore.DebugLevel:  "DEBUG",
		zapcore.InfoLevel:   "INFO",
		zapcore.WarnLevel:   "WARNING",
		zapcore.ErrorLevel:  "ERROR",
		zapcore.DPanicLevel: "CRITICAL",
		zapcore.PanicLevel:  "ALERT",
		zapcore.FatalLevel:  "EMERGENCY",
		zapcore.Level(42):   "DEFAULT",
	}

	for level, want := range tests {
		enc := zapcore.NewMapObjectEncoder()
		err := enc.AddArray("v", zapcore.ArrayMarshalerFunc(func(arr zapcore.ArrayEncoder) error {
			encodeSeverity(level, arr)
			return nil
		}))
		if err != nil {
			t.Fatalf("encode %v: %v", level, err)
		}
		if got := enc.Fields["v"].([]any); len(got) != 1 || got[0] != want {
			t.Errorf("encodeSeverity(%v) = %v, want %s", level, got, want)
		}
	}
}

func TestEncodeTimeMicrosUsesUTC(t *testing.T) {
	enc := zapcore.NewMapObjectEncoder()
	at := time.Date(2026, 10, 19, 9, 0, 0, 7000, time.FixedZone("CEST", 2*60*60))
	_ = enc.AddArray("v", zapcore.ArrayMarshalerFunc(func(arr zapcore.ArrayEncoder) error {
		encodeTimeMicros(at, arr)
		return nil
	}))
	if got := enc.Fields["v"].([]any)[0]; got != "2026-10-19T07:00:00.000007Z" {
		t.Fatalf("unexpected timestamp %v", got)
	}
}
