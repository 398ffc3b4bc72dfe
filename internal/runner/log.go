package runner

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/psyche/internal/inventory"
	"github.com/dshills/psyche/internal/prompt"
	"github.com/dshills/psyche/internal/schema"
)

// runLog records the verification trail of a run. Each line goes both to the
// structured logger and to the entries persisted with the profile. Safe for
// concurrent use.
type runLog struct {
	logger zerolog.Logger
	now    func() time.Time

	mu  sync.Mutex
	buf []schema.LogEntry
}

func newRunLog(logger zerolog.Logger, now func() time.Time) *runLog {
	return &runLog{logger: logger, now: now}
}

func (l *runLog) add(t schema.LogType, msg string) {
	l.mu.Lock()
	l.buf = append(l.buf, schema.LogEntry{
		Timestamp: l.now().UTC().Format(time.RFC3339),
		Message:   msg,
		Type:      t,
	})
	l.mu.Unlock()
}

func (l *runLog) info(msg string) {
	l.logger.Info().Msg(msg)
	l.add(schema.LogInfo, msg)
}

func (l *runLog) success(msg string) {
	l.logger.Info().Msg(msg)
	l.add(schema.LogSuccess, msg)
}

func (l *runLog) errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Warn().Msg(msg)
	l.add(schema.LogError, msg)
}

// answer records a parsed reply.
func (l *runLog) answer(it inventory.Item, sample int, reply string, ans prompt.Answer) {
	l.logger.Debug().
		Str("item", it.ID).
		Int("sample", sample+1).
		Float64("score", ans.Value).
		Str("raw", reply).
		Bool("fallback", ans.Fallback).
		Msg("parsed reply")

	var msg string
	if it.Type == inventory.TypeChoiceBinary {
		msg = fmt.Sprintf("[%s] DISC: Most=%d (%s), Least=%d (%s)", it.ID,
			ans.Most+1, it.Words[ans.Most].Quadrant, ans.Least+1, it.Words[ans.Least].Quadrant)
	} else {
		msg = fmt.Sprintf("[%s] Question: %q | Raw Answer: %q -> Score: %g", it.ID, label(it), reply, ans.Value)
		if ans.Fallback {
			msg += " (Fallback)"
		}
	}
	l.add(schema.LogSuccess, msg)
}

func (l *runLog) entries() []schema.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]schema.LogEntry(nil), l.buf...)
}
