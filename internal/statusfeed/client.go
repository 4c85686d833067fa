package statusfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"calmspace/internal/domain"
)

// Event is one decoded feed message. Exactly one payload field is set.
type Event struct {
	Type     string
	Snapshot *SnapshotPayload
	Playback *domain.PlaybackStatus
	Session  *SessionPayload
	Error    *ErrorPayload
}

// Subscription is a live connection to a status feed.
type Subscription struct {
	conn    *websocket.Conn
	events  chan Event
	done    chan struct{}
	closing chan struct{}

	errMu sync.Mutex
	err   error

	closeOnce sync.Once
}

// Subscribe connects to the feed served at addr. addr may be a bare
// host:port or an http(s)/ws(s) URL; the /ws path is implied when missing.
func Subscribe(ctx context.Context, addr string) (*Subscription, error) {
	feedURL, err := buildFeedURL(addr)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to status feed %s: %w", feedURL, err)
	}

	sub := &Subscription{
		conn:   conn,
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
	}
	go sub.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

// Events is closed when the connection ends. The reader blocks while the
// channel is full, so a slow consumer never misses a transition.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Wait blocks until the connection ends and returns the first read error.
func (s *Subscription) Wait() error {
	<-s.done
	return s.waitErr()
}

func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.closing)
		_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

func (s *Subscription) waitErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Subscription) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) || errors.Is(err, net.ErrClosed) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *Subscription) readLoop() {
	defer func() {
		close(s.events)
		close(s.done)
		_ = s.conn.Close()
	}()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("failed to read feed event: %w", err))
			return
		}

		event, err := decodeEvent(payload)
		if err != nil {
			continue
		}
		select {
		case s.events <- event:
		case <-s.closing:
			return
		}
	}
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func decodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, err
	}

	event := Event{Type: env.Type}
	var target any
	switch env.Type {
	case MsgSnapshot:
		event.Snapshot = &SnapshotPayload{}
		target = event.Snapshot
	case MsgPlayback:
		event.Playback = &domain.PlaybackStatus{}
		target = event.Playback
	case MsgSession:
		event.Session = &SessionPayload{}
		target = event.Session
	case MsgError:
		event.Error = &ErrorPayload{}
		target = event.Error
	default:
		return Event{}, fmt.Errorf("unknown feed message type %q", env.Type)
	}
	if err := json.Unmarshal(env.Payload, target); err != nil {
		return Event{}, fmt.Errorf("invalid %s payload: %w", env.Type, err)
	}
	return event, nil
}

func buildFeedURL(addr string) (string, error) {
	base := strings.TrimSpace(addr)
	if base == "" {
		return "", errors.New("status feed address is not configured")
	}

	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	case strings.HasPrefix(base, "ws://"), strings.HasPrefix(base, "wss://"):
	default:
		base = "ws://" + base
	}

	feedURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid status feed address: %w", err)
	}
	if feedURL.Path == "" || feedURL.Path == "/" {
		feedURL.Path = "/ws"
	}
	return feedURL.String(), nil
}
