package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"calmspace/internal/bootstrap"
	"calmspace/internal/config"
	"calmspace/internal/domain"
	"calmspace/internal/metrics"
	"calmspace/internal/statusfeed"
	"calmspace/internal/usecase"
	"calmspace/internal/version"
)

const (
	eventPlayback = "calmspace:playback"
	eventSession  = "calmspace:session"
	eventError    = "calmspace:error"
)

// App is the Wails application root.
type App struct {
	ctx            context.Context
	stopBackground context.CancelFunc

	session  *usecase.SessionLifecycle
	playback *usecase.PlaybackController
	cfg      config.Config
	asset    string
	bootErr  error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.session = services.Session
	a.playback = services.Playback
	a.asset = services.Assets.Path()

	backgroundCtx, cancel := context.WithCancel(ctx)
	a.stopBackground = cancel
	go services.Ticker.Run(backgroundCtx)

	if addr := services.Config.Feed.Addr; addr != "" {
		server := statusfeed.NewServer(addr, services.Feed, metrics.Handler(services.Registry), services.Logger)
		go func() {
			if err := server.Run(backgroundCtx); err != nil {
				services.Logger.Warn("status feed stopped", "addr", addr, "error", err)
			}
		}()
	}

	a.SessionStateChanged(a.session.Status(), domain.SessionReasonIdle)
}

// shutdown releases the audio resource when the window goes away.
func (a *App) shutdown(_ context.Context) {
	if a.stopBackground != nil {
		a.stopBackground()
	}
	if a.session == nil {
		return
	}
	if err := a.session.Close(); err != nil {
		a.SessionError(domain.ErrorCodeAudioRelease, err.Error())
	}
}

// StartSession enters the monitoring view and starts the ambient loop.
func (a *App) StartSession() (domain.SessionStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.SessionStatus{}, err
	}
	return a.session.StartSession(a.ctx)
}

// StopSession ends monitoring and releases the audio resource.
func (a *App) StopSession() (domain.SessionStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.SessionStatus{}, err
	}
	return a.session.StopSession(), nil
}

// TogglePlayback pauses or resumes the loop inside an active session.
func (a *App) TogglePlayback() (domain.SessionStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.SessionStatus{}, err
	}
	return a.session.ToggleActive(a.ctx)
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.SessionStatus {
	if a.session == nil {
		return domain.SessionStatus{Phase: domain.SessionPhaseIdle}
	}
	return a.session.Status()
}

// GetPlayback returns the playback controller snapshot.
func (a *App) GetPlayback() domain.PlaybackStatus {
	if a.playback == nil {
		return domain.PlaybackStatus{State: domain.PlaybackStateUninitialized}
	}
	return a.playback.Status()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	return map[string]string{
		"version":       version.Version,
		"playerCommand": a.cfg.Audio.PlayerCommand,
		"asset":         a.asset,
		"volume":        strconv.Itoa(a.cfg.Audio.Volume),
		"loopMode":      domain.LoopModeTrack.String(),
		"configFile":    a.cfg.File,
		"feedAddr":      a.cfg.Feed.Addr,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.session == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// PlaybackChanged emits playback snapshots to the frontend.
func (a *App) PlaybackChanged(status domain.PlaybackStatus) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventPlayback, status)
}

// SessionStateChanged emits session lifecycle updates to the frontend.
func (a *App) SessionStateChanged(status domain.SessionStatus, reason domain.SessionStateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSession, map[string]any{
		"status":  status,
		"reason":  string(reason),
		"message": sessionReasonMessage(reason),
	})
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func sessionReasonMessage(reason domain.SessionStateReason) string {
	switch reason {
	case domain.SessionReasonIdle:
		return "Ready to sleep"
	case domain.SessionReasonStarted:
		return "Monitoring started"
	case domain.SessionReasonStopped:
		return "Monitoring stopped"
	case domain.SessionReasonClosed:
		return "Session closed"
	case domain.SessionReasonPlaybackStarted:
		return "Rain resumed"
	case domain.SessionReasonPlaybackStopped:
		return "Rain paused"
	case domain.SessionReasonStartFailed:
		return "Could not start the rain loop"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeAudioAllocation:
		return "Audio could not be started"
	case domain.ErrorCodeAudioStop:
		return "Audio stop issue"
	case domain.ErrorCodeAudioRelease:
		return "Audio release issue"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
