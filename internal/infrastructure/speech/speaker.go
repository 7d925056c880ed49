// Package speech adapts text-to-speech backends to the Speaker port.
package speech

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/bharatbiz/bizagent/internal/application/port"
	"go.uber.org/zap"
)

// LogSpeaker records spoken lines in the log. It stands in for a device
// backed synthesizer on hosts without audio.
type LogSpeaker struct {
	logger *zap.Logger
}

var _ port.Speaker = (*LogSpeaker)(nil)

// NewLogSpeaker creates a new LogSpeaker
func NewLogSpeaker(logger *zap.Logger) *LogSpeaker {
	return &LogSpeaker{logger: logger}
}

// Speak logs text
func (s *LogSpeaker) Speak(ctx context.Context, text string) error {
	s.logger.Info("Speaking", zap.String("text", text))
	return nil
}

// WriterSpeaker prints spoken lines to a terminal, prefixed so they stand
// apart from typed replies
type WriterSpeaker struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
}

var _ port.Speaker = (*WriterSpeaker)(nil)

// NewWriterSpeaker creates a new WriterSpeaker
func NewWriterSpeaker(w io.Writer, prefix string) *WriterSpeaker {
	return &WriterSpeaker{w: w, prefix: prefix}
}

// Speak writes text as one line
func (s *WriterSpeaker) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "%s%s\n", s.prefix, strings.TrimSpace(text))
	return err
}
