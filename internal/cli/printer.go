package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"calmspace/internal/domain"
)

// Printer renders session events for the terminal. It implements ports.EventSink.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) PlaybackChanged(domain.PlaybackStatus) {}

func (p *Printer) SessionStateChanged(status domain.SessionStatus, reason domain.SessionStateReason) {
	switch reason {
	case domain.SessionReasonStarted:
		p.printf("🌧️  Monitoring started: %s\n", status.Asset)
	case domain.SessionReasonStopped:
		p.printf("⏹️  Monitoring stopped (%s)\n", formatElapsed(status.Elapsed))
	case domain.SessionReasonPlaybackStarted:
		p.printf("▶️  Rain resumed\n")
	case domain.SessionReasonPlaybackStopped:
		p.printf("⏸️  Rain paused\n")
	}
}

func (p *Printer) SessionError(code domain.ErrorCode, detail string) {
	p.printf("❌ %s: %s\n", code, detail)
}

func (p *Printer) Check(name string, ok bool, detail string) {
	mark := "✅"
	if !ok {
		mark = "❌"
	}
	p.printf("%s %s: %s\n", mark, name, detail)
}

func (p *Printer) Error(msg string) {
	p.printf("❌ %s\n", msg)
}

func (p *Printer) Info(msg string) {
	p.printf("ℹ️  %s\n", msg)
}

func (p *Printer) Success(msg string) {
	p.printf("✅ %s\n", msg)
}

func (p *Printer) Warning(msg string) {
	p.printf("⚠️  %s\n", msg)
}

func (p *Printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

// formatElapsed renders a duration as H:MM:SS.
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
