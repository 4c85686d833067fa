package bootstrap

import (
	"calmspace/internal/domain"
	"calmspace/internal/ports"
)

// fanoutSink delivers each event to every sink in registration order.
type fanoutSink struct {
	sinks []ports.EventSink
}

func newFanoutSink(sinks ...ports.EventSink) *fanoutSink {
	f := &fanoutSink{}
	for _, sink := range sinks {
		if sink != nil {
			f.sinks = append(f.sinks, sink)
		}
	}
	return f
}

func (f *fanoutSink) PlaybackChanged(status domain.PlaybackStatus) {
	for _, sink := range f.sinks {
		sink.PlaybackChanged(status)
	}
}

func (f *fanoutSink) SessionStateChanged(status domain.SessionStatus, reason domain.SessionStateReason) {
	for _, sink := range f.sinks {
		sink.SessionStateChanged(status, reason)
	}
}

func (f *fanoutSink) SessionError(code domain.ErrorCode, detail string) {
	for _, sink := range f.sinks {
		sink.SessionError(code, detail)
	}
}
