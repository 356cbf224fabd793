// Package audit is the structured event sink for state-changing operations.
// Emission is fire-and-forget: the sink never returns an error and must
// never block or fail the transaction that produced the event.
package audit

import (
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Log writes audit events through a zap logger.
type Log struct {
	logger *zap.Logger
}

// New creates an audit log writing to the given zap logger.
func New(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

// Nop returns an audit log that discards events (for tests).
func Nop() *Log {
	return &Log{logger: zap.NewNop()}
}

// NewProduction creates an audit log with zap's production JSON encoder.
func NewProduction() (*Log, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return New(logger.Named("audit")), nil
}

// Event emits one audit event with a generated event id and the given
// context fields. Field order is stable for log diffing.
func (l *Log) Event(name string, fields map[string]any) {
	if l == nil || l.logger == nil {
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zfields := make([]zap.Field, 0, len(fields)+1)
	zfields = append(zfields, zap.String("event_id", uuid.NewString()))
	for _, k := range keys {
		zfields = append(zfields, zap.Any(k, fields[k]))
	}

	l.logger.Info(name, zfields...)
}

// Fail logs a failed operation with its context so every mutation attempt,
// successful or not, shares one structured stream.
func (l *Log) Fail(name string, err error, fields map[string]any) {
	if l == nil || l.logger == nil {
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zfields := make([]zap.Field, 0, len(fields)+1)
	zfields = append(zfields, zap.Error(err))
	for _, k := range keys {
		zfields = append(zfields, zap.Any(k, fields[k]))
	}

	l.logger.Warn(name, zfields...)
}

// Sync flushes buffered events. Called on shutdown.
func (l *Log) Sync() {
	if l != nil && l.logger != nil {
		_ = l.logger.Sync()
	}
}
