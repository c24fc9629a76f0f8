// Package notify is the transient-message port: fire-and-forget notices whose
// return values no caller consumes.
package notify

import (
	"sync"

	"github.com/rs/zerolog"
)

// Level classifies a notice for presentation.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notice is one transient message.
type Notice struct {
	Level   Level
	Message string
}

// Notifier presents notices to the visitor.
type Notifier interface {
	Notify(Notice)
}

// Func adapts a function to the Notifier interface.
type Func func(Notice)

// Notify calls f.
func (f Func) Notify(n Notice) { f(n) }

// Success emits a success notice.
func Success(n Notifier, msg string) {
	if n != nil {
		n.Notify(Notice{Level: LevelSuccess, Message: msg})
	}
}

// Error emits an error notice.
func Error(n Notifier, msg string) {
	if n != nil {
		n.Notify(Notice{Level: LevelError, Message: msg})
	}
}

// Buffer accumulates notices for later rendering (flash messages, tests).
type Buffer struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify appends the notice.
func (b *Buffer) Notify(n Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, n)
}

// Drain returns the accumulated notices and clears the buffer.
func (b *Buffer) Drain() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.notices
	b.notices = nil
	return out
}

// Notices returns a copy of the accumulated notices without clearing.
func (b *Buffer) Notices() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notice, len(b.notices))
	copy(out, b.notices)
	return out
}

// Logger writes notices to a structured log, for surfaces with no UI.
type Logger struct {
	Log zerolog.Logger
}

// Notify logs the notice at a level matching its tone.
func (l Logger) Notify(n Notice) {
	evt := l.Log.Info()
	if n.Level == LevelError {
		evt = l.Log.Warn()
	}
	evt.Str("tone", string(n.Level)).Msg(n.Message)
}
