// Package logger provides component-tagged structured logging for dropgram.
//
// Call sites pass a short component name ("fill", "sender", "queue") so log
// lines from the interleaved fill and send routines can be told apart.
package logger

import (
	"sort"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	base = mustBuild(false)
)

func mustBuild(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	return l
}

// Setup replaces the process logger. Call once at startup.
func Setup(debug bool) {
	mu.Lock()
	defer mu.Unlock()
	base = mustBuild(debug)
}

// SetNop discards all log output. Use in tests.
func SetNop() {
	mu.Lock()
	defer mu.Unlock()
	base = zap.NewNop()
}

func log() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func zapFields(component string, fields map[string]any) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	out = append(out, zap.String("component", component))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

func DebugCF(component, msg string, fields map[string]any) {
	log().Debug(msg, zapFields(component, fields)...)
}

func InfoCF(component, msg string, fields map[string]any) {
	log().Info(msg, zapFields(component, fields)...)
}

func WarnCF(component, msg string, fields map[string]any) {
	log().Warn(msg, zapFields(component, fields)...)
}

func ErrorCF(component, msg string, fields map[string]any) {
	log().Error(msg, zapFields(component, fields)...)
}
