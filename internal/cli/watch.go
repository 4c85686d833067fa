package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"calmspace/internal/statusfeed"
)

func NewWatchCmd(deps *Dependencies) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a running session's status feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr == "" {
				addr = deps.Config.Feed.Addr
			}
			if addr == "" {
				return errors.New("no feed address: pass --addr or set CALMSPACE_FEED_ADDR")
			}
			return runWatch(ctx, deps.Printer, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Status feed address (host:port or URL)")

	return cmd
}

func runWatch(ctx context.Context, printer *Printer, addr string) error {
	sub, err := statusfeed.Subscribe(ctx, addr)
	if err != nil {
		return err
	}
	defer sub.Close()

	for event := range sub.Events() {
		switch {
		case event.Snapshot != nil:
			session := event.Snapshot.Session
			printer.Info("Connected: session " + string(session.Phase) + ", elapsed " + formatElapsed(session.Elapsed))
		case event.Session != nil:
			printer.SessionStateChanged(event.Session.Status, event.Session.Reason)
		case event.Error != nil:
			printer.SessionError(event.Error.Code, event.Error.Detail)
		}
	}
	return sub.Wait()
}
