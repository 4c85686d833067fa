package bootstrap

import (
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"calmspace/internal/assets"
	"calmspace/internal/audio"
	"calmspace/internal/config"
	"calmspace/internal/logging"
	"calmspace/internal/metrics"
	"calmspace/internal/ports"
	"calmspace/internal/statusfeed"
	"calmspace/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Config   config.Config
	Logger   *slog.Logger
	Assets   *assets.FileProvider
	Playback *usecase.PlaybackController
	Session  *usecase.SessionLifecycle
	Ticker   *usecase.ElapsedTicker
	Feed     *statusfeed.Hub
	Registry *prometheus.Registry
	Metrics  *metrics.PlaybackMetrics
}

// Build wires all backend dependencies for the current runtime.
// eventSink receives every playback and session event alongside the
// logging, metrics and status feed sinks. It may be nil.
func Build(eventSink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	clock := clockwork.NewRealClock()
	output := audio.NewFFPlayOutput(audio.Options{
		Command:      cfg.Audio.PlayerCommand,
		Volume:       cfg.Audio.Volume,
		StartupProbe: cfg.Audio.StartupProbe,
		Clock:        clock,
	})
	return assemble(cfg, eventSink, output, clock), nil
}

func assemble(cfg config.Config, eventSink ports.EventSink, output ports.AudioOutput, clock clockwork.Clock) Services {
	logger := logging.InitLogger(cfg.Log.Level, cfg.Log.Format)
	if cfg.File != "" {
		logger.Debug("loaded config file", "path", cfg.File)
	}

	registry := metrics.NewRegistry()
	playbackMetrics := metrics.NewPlaybackMetrics(registry)
	feed := statusfeed.NewHub(logger)

	events := newFanoutSink(eventSink, logging.NewSink(logger), playbackMetrics, feed)
	provider := assets.NewFileProvider(cfg.Audio.AssetPath, cfg.Audio.SoundsDir)

	playback := usecase.NewPlaybackController(provider, output, events, playbackMetrics)
	session := usecase.NewSessionLifecycle(playback, events, clock)
	ticker := usecase.NewElapsedTicker(session, clock, cfg.Session.TickInterval)

	feed.SetSnapshot(func() statusfeed.SnapshotPayload {
		return statusfeed.SnapshotPayload{
			Session:  session.Status(),
			Playback: playback.Status(),
		}
	})

	return Services{
		Config:   cfg,
		Logger:   logger,
		Assets:   provider,
		Playback: playback,
		Session:  session,
		Ticker:   ticker,
		Feed:     feed,
		Registry: registry,
		Metrics:  playbackMetrics,
	}
}
