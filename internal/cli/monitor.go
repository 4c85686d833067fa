package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"calmspace/internal/statusfeed"
	"calmspace/internal/usecase"
)

func NewMonitorCmd(deps *Dependencies) *cobra.Command {
	var duration time.Duration
	var feedAddr string

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Play the ambient loop until stopped",
		Long:  "Start a monitoring session and loop the rain ambience.\nRuns until Ctrl+C, SIGTERM or --duration elapses, then releases the audio resource.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			if feedAddr == "" {
				feedAddr = deps.Config.Feed.Addr
			}
			return runMonitor(ctx, deps, feedAddr)
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop automatically after this long (0 runs until interrupted)")
	cmd.Flags().StringVar(&feedAddr, "feed-addr", "", "Serve the websocket status feed and metrics on this address")

	return cmd
}

func runMonitor(ctx context.Context, deps *Dependencies, feedAddr string) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var feedErr error

	if feedAddr != "" && deps.Feed != nil {
		server := statusfeed.NewServer(feedAddr, deps.Feed, deps.Metrics, nil)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Run(runCtx); err != nil {
				feedErr = err
				cancel()
			}
		}()
		deps.Printer.Info("Status feed at ws://" + feedAddr + "/ws")
	}

	if deps.Ticker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			deps.Ticker.Run(runCtx)
		}()
	}

	err := usecase.WithSession(runCtx, deps.Session, func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	cancel()
	wg.Wait()

	return errors.Join(err, feedErr)
}
