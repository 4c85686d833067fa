package statusfeed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calmspace/internal/domain"
)

func nextEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		require.True(t, ok, "feed closed early")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed event")
	}
	return Event{}
}

func TestSubscribeReceivesSnapshotAndEvents(t *testing.T) {
	hub := newSnapshotHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	sub, err := Subscribe(context.Background(), srv.URL)
	require.NoError(t, err)
	defer sub.Close()

	snapshot := nextEvent(t, sub)
	require.Equal(t, MsgSnapshot, snapshot.Type)
	require.NotNil(t, snapshot.Snapshot)
	assert.Equal(t, "session-1", snapshot.Snapshot.Session.ID)

	hub.SessionStateChanged(domain.SessionStatus{ID: "session-1", Phase: domain.SessionPhaseActive, Playing: false}, domain.SessionReasonPlaybackStopped)
	hub.SessionError(domain.ErrorCodeAudioStop, "pause failed")

	session := nextEvent(t, sub)
	require.NotNil(t, session.Session)
	assert.Equal(t, domain.SessionReasonPlaybackStopped, session.Session.Reason)
	assert.False(t, session.Session.Status.Playing)

	failure := nextEvent(t, sub)
	require.NotNil(t, failure.Error)
	assert.Equal(t, domain.ErrorCodeAudioStop, failure.Error.Code)
}

func TestSubscriptionEndsWhenHubCloses(t *testing.T) {
	hub := newSnapshotHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	sub, err := Subscribe(context.Background(), srv.URL)
	require.NoError(t, err)
	nextEvent(t, sub)

	hub.Close()

	done := make(chan struct{})
	go func() {
		_ = sub.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not end after hub closed")
	}
}

func TestSubscribeCancelledContextCloses(t *testing.T) {
	hub := newSnapshotHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := Subscribe(ctx, srv.URL)
	require.NoError(t, err)
	nextEvent(t, sub)

	cancel()
	require.NoError(t, sub.Wait())
}

func TestSubscribeRequiresAddress(t *testing.T) {
	_, err := Subscribe(context.Background(), "  ")
	require.Error(t, err)
}

func TestBuildFeedURL(t *testing.T) {
	cases := map[string]string{
		"127.0.0.1:7788":          "ws://127.0.0.1:7788/ws",
		"http://localhost:7788":   "ws://localhost:7788/ws",
		"https://calm.local/":     "wss://calm.local/ws",
		"ws://localhost:7788/ws":  "ws://localhost:7788/ws",
		"wss://calm.local/status": "wss://calm.local/status",
	}
	for addr, want := range cases {
		got, err := buildFeedURL(addr)
		require.NoError(t, err, addr)
		assert.Equal(t, want, got, addr)
	}
}

func TestDecodeEventRejectsUnknownType(t *testing.T) {
	_, err := decodeEvent([]byte(`{"type":"bogus","payload":{}}`))
	assert.Error(t, err)

	_, err = decodeEvent([]byte(`not json`))
	assert.Error(t, err)
}

func TestSubscriptionSlowConsumerKeepsEveryEvent(t *testing.T) {
	const burst = 150

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for i := 0; i < burst; i++ {
			reason := domain.SessionReasonTick
			if i == burst-1 {
				reason = domain.SessionReasonStopped
			}
			data, _ := json.Marshal(Message{Type: MsgSession, Payload: SessionPayload{Reason: reason}})
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	sub, err := Subscribe(context.Background(), srv.URL)
	require.NoError(t, err)
	defer sub.Close()

	// Let the reader fill the buffer before consuming anything.
	time.Sleep(200 * time.Millisecond)

	var received []Event
	timeout := time.After(5 * time.Second)
	for len(received) < burst {
		select {
		case event, ok := <-sub.Events():
			require.True(t, ok, "feed closed after %d events", len(received))
			received = append(received, event)
		case <-timeout:
			t.Fatalf("received %d of %d events", len(received), burst)
		}
	}
	require.NotNil(t, received[burst-1].Session)
	assert.Equal(t, domain.SessionReasonStopped, received[burst-1].Session.Reason)
}
