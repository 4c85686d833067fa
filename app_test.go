package main

import (
	"context"
	"errors"
	"testing"

	"calmspace/internal/domain"
)

func TestSessionReasonMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.SessionStateReason]string{
		domain.SessionReasonIdle:            "Ready to sleep",
		domain.SessionReasonStarted:         "Monitoring started",
		domain.SessionReasonStopped:         "Monitoring stopped",
		domain.SessionReasonClosed:          "Session closed",
		domain.SessionReasonPlaybackStarted: "Rain resumed",
		domain.SessionReasonPlaybackStopped: "Rain paused",
		domain.SessionReasonStartFailed:     "Could not start the rain loop",
	}

	for reason, want := range cases {
		reason, want := reason, want
		t.Run(string(reason), func(t *testing.T) {
			t.Parallel()
			if got := sessionReasonMessage(reason); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := sessionReasonMessage(domain.SessionReasonTick); got != "" {
		t.Fatalf("expected empty tick message, got %q", got)
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.ErrorCode]string{
		domain.ErrorCodeStartup:         "Startup failed",
		domain.ErrorCodeAudioAllocation: "Audio could not be started",
		domain.ErrorCodeAudioStop:       "Audio stop issue",
		domain.ErrorCodeAudioRelease:    "Audio release issue",
	}
	for code, want := range cases {
		code, want := code, want
		t.Run(string(code), func(t *testing.T) {
			t.Parallel()
			if got := errorMessage(code, "ignored"); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := errorMessage("unknown", "detail"); got != "detail" {
		t.Fatalf("expected detail fallback, got %q", got)
	}
	if got := errorMessage("unknown", ""); got != "Unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestRequireReady(t *testing.T) {
	t.Parallel()

	app := &App{}
	if err := app.requireReady(); err == nil {
		t.Fatalf("expected uninitialized error")
	}

	bootErr := errors.New("boot")
	app.bootErr = bootErr
	if err := app.requireReady(); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error, got %v", err)
	}
	if _, err := app.StartSession(); !errors.Is(err, bootErr) {
		t.Fatalf("expected start to surface boot error, got %v", err)
	}
	if info := app.GetRuntimeInfo(); info["error"] != "boot" {
		t.Fatalf("expected boot error in runtime info, got %v", info)
	}
}

func TestGettersWhenNotInitialized(t *testing.T) {
	t.Parallel()

	app := &App{}
	if status := app.GetStatus(); status.Phase != domain.SessionPhaseIdle || status.Playing {
		t.Fatalf("unexpected status: %+v", status)
	}
	if playback := app.GetPlayback(); playback.State != domain.PlaybackStateUninitialized || playback.Playing {
		t.Fatalf("unexpected playback: %+v", playback)
	}
}

func TestShutdownWithoutServicesIsSafe(t *testing.T) {
	t.Parallel()

	app := &App{}
	app.shutdown(context.Background())
	app.PlaybackChanged(domain.PlaybackStatus{})
	app.SessionStateChanged(domain.SessionStatus{}, domain.SessionReasonClosed)
	app.SessionError(domain.ErrorCodeAudioRelease, "ignored")
}
