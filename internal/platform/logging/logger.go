package logging

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/janisto/greeting-service/internal/platform/timeutil"
)

// ServiceName is attached to every entry as the "service" field.
const ServiceName = "greeting-service"

var (
	loggerOnce sync.Once
	baseLogger *zap.Logger
	initErr    error
)

// Init builds the process logger tagged with the service name and version.
// Only the first call has an effect; later calls return the first result.
// When the JSON sink cannot be built the logger falls back to a plain stderr
// core and the build error is returned.
func Init(version string) error {
	loggerOnce.Do(func() {
		baseLogger, initErr = newLogger(version)
	})
	return initErr
}

func newLogger(version string) (*zap.Logger, error) {
	fields := zap.Fields(
		zap.String("service", ServiceName),
		zap.String("version", version),
	)

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig = encoderConfig()

	logger, err := cfg.Build(zap.AddCaller(), fields)
	if err != nil {
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig()),
			zapcore.Lock(os.Stderr),
			zapcore.InfoLevel,
		)
		return zap.New(core, zap.AddCaller(), fields), err
	}
	return logger, nil
}

func encoderConfig() zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.EncodeTime = encodeTimeMicros
	enc.LevelKey = "severity"
	enc.EncodeLevel = encodeSeverity
	enc.MessageKey = "message"
	enc.CallerKey = "caller"
	return enc
}

// encodeTimeMicros formats timestamps as RFC 3339 with fixed microsecond precision.
func encodeTimeMicros(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(timeutil.FormatMicros(t))
}

// encodeSeverity maps zap levels to Cloud Logging severity names.
func encodeSeverity(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	severity := "DEFAULT"
	switch level {
	case zapcore.DebugLevel:
		severity = "DEBUG"
	case zapcore.InfoLevel:
		severity = "INFO"
	case zapcore.WarnLevel:
		severity = "WARNING"
	case zapcore.ErrorLevel:
		severity = "ERROR"
	case zapcore.DPanicLevel:
		severity = "CRITICAL"
	case zapcore.PanicLevel:
		severity = "ALERT"
	case zapcore.FatalLevel:
		severity = "EMERGENCY"
	}
	enc.AppendString(severity)
}

// Logger returns the process logger, initializing it with version "dev" if
// Init has not run yet.
func Logger() *zap.Logger {
	_ = Init("dev")
	return baseLogger
}

// Sync flushes buffered log entries. Call before the process exits.
func Sync() error {
	return Logger().Sync()
}
