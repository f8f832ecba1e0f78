package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// AuditName is the logger name whose entries reach the audit file.
const AuditName = "audit"

// Logger writes human-readable lines to the console and, when a file is
// configured, Auditf entries as JSON lines to an append-only audit log.
type Logger struct {
	*zap.SugaredLogger
}

type Options struct {
	Level string
	File  string
	// Console defaults to stdout.
	Console io.Writer
}

func New(logLevel, logFile string) (*Logger, error) {
	return NewWithOptions(Options{Level: logLevel, File: logFile})
}

func NewWithOptions(opts Options) (*Logger, error) {
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(console), level),
	}

	if opts.File != "" {
		// rotated segments are kept forever: MaxBackups and MaxAge stay zero
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename: opts.File,
			MaxSize:  100,
			Compress: true,
		})
		cores = append(cores, auditCore{
			zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileWriter, zapcore.InfoLevel),
		})
	}

	zapLogger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{zapLogger.Sugar()}, nil
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

// Auditf records one completed operation in the audit log (and the console).
func (l *Logger) Auditf(template string, args ...interface{}) {
	l.Named(AuditName).WithOptions(zap.AddCallerSkip(1)).Infof(template, args...)
}

func (l *Logger) Close() {
	_ = l.Sync()
}

// auditCore passes through only entries logged under AuditName.
type auditCore struct {
	zapcore.Core
}

func (c auditCore) With(fields []zapcore.Field) zapcore.Core {
	return auditCore{c.Core.With(fields)}
}

func (c auditCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if ent.LoggerName != AuditName {
		return ce
	}
	return c.Core.Check(ent, ce)
}
