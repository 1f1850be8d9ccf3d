package logs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tgifai/reminder/internal/consts"
)

type logrusLogger struct {
	log *logrus.Logger
}

var _ Logger = (*logrusLogger)(nil)

func newDefaultLogger() Logger {
	log := logrus.New()
	log.SetFormatter(&textFormatter{enableColor: shouldColorize("stdout")})
	log.SetLevel(logrus.InfoLevel)
	return &logrusLogger{log: log}
}

func newConfiguredLogger(opts Options) (Logger, error) {
	output := strings.ToLower(strings.TrimSpace(opts.Output))
	if output == "" {
		output = "stdout"
	}
	w, err := openWriter(opts, output)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetOutput(w)
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&textFormatter{enableColor: shouldColorize(output)})
	}
	log.SetLevel(toLogrusLevel(ParseLevel(opts.Level)))
	return &logrusLogger{log: log}, nil
}

// ParseLevel maps a config string onto a LogLevel, defaulting to info.
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}

func openWriter(opts Options, output string) (io.Writer, error) {
	switch output {
	case "stdout":
		return os.Stdout, nil
	case "file", "both":
		rotate, err := newRotateWriter(opts)
		if err != nil {
			return nil, err
		}
		if output == "file" {
			return rotate, nil
		}
		return &teeWriter{console: os.Stdout, file: rotate}, nil
	default:
		return nil, fmt.Errorf("unsupported log output: %s", output)
	}
}

// teeWriter mirrors console output into the log file without color codes.
type teeWriter struct {
	console io.Writer
	file    io.Writer
}

func (w *teeWriter) Write(p []byte) (int, error) {
	if _, err := w.console.Write(p); err != nil {
		return 0, err
	}
	if _, err := w.file.Write(stripANSI(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func newRotateWriter(opts Options) (io.Writer, error) {
	file := strings.TrimSpace(opts.File)
	if file == "" {
		return nil, fmt.Errorf("log file is required when output includes file")
	}
	if dir := filepath.Dir(file); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir failed: %w", err)
		}
	}

	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = 50
	}
	return &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSize,
		MaxBackups: max(opts.MaxBackups, 0),
		MaxAge:     max(opts.MaxAge, 0),
		Compress:   opts.Compress,
	}, nil
}

func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case FatalLevel:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

func (l *logrusLogger) GetLevel() LogLevel {
	switch l.log.GetLevel() {
	case logrus.DebugLevel, logrus.TraceLevel:
		return DebugLevel
	case logrus.WarnLevel:
		return WarnLevel
	case logrus.ErrorLevel:
		return ErrorLevel
	case logrus.FatalLevel, logrus.PanicLevel:
		return FatalLevel
	default:
		return InfoLevel
	}
}

func (l *logrusLogger) SetLevel(level LogLevel) {
	l.log.SetLevel(toLogrusLevel(level))
}

func (l *logrusLogger) NewLogID() string {
	return uuid.New().String()
}

func (l *logrusLogger) GetLogID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	logID, _ := ctx.Value(consts.CtxKeyLogID).(string)
	return logID
}

func (l *logrusLogger) SetLogID(ctx context.Context, logID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, consts.CtxKeyLogID, logID)
}

func (l *logrusLogger) Debug(format string, v ...interface{}) { l.log.Debugf(format, v...) }
func (l *logrusLogger) Info(format string, v ...interface{})  { l.log.Infof(format, v...) }
func (l *logrusLogger) Warn(format string, v ...interface{})  { l.log.Warnf(format, v...) }
func (l *logrusLogger) Error(format string, v ...interface{}) { l.log.Errorf(format, v...) }
func (l *logrusLogger) Fatal(format string, v ...interface{}) { l.log.Fatalf(format, v...) }

func (l *logrusLogger) CtxDebug(ctx context.Context, format string, v ...interface{}) {
	l.log.WithContext(ctx).Debugf(format, v...)
}

func (l *logrusLogger) CtxInfo(ctx context.Context, format string, v ...interface{}) {
	l.log.WithContext(ctx).Infof(format, v...)
}

func (l *logrusLogger) CtxWarn(ctx context.Context, format string, v ...interface{}) {
	l.log.WithContext(ctx).Warnf(format, v...)
}

func (l *logrusLogger) CtxError(ctx context.Context, format string, v ...interface{}) {
	l.log.WithContext(ctx).Errorf(format, v...)
}

func (l *logrusLogger) CtxFatal(ctx context.Context, format string, v ...interface{}) {
	l.log.WithContext(ctx).Fatalf(format, v...)
}

func (l *logrusLogger) Flush() {}
