package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"calmspace/internal/config"
	"calmspace/internal/domain"
	"calmspace/internal/statusfeed"
	"calmspace/internal/usecase"
	"calmspace/internal/version"
)

// AssetResolver reports where the ambient loop lives and whether it is usable.
type AssetResolver interface {
	Path() string
	Resolve(ctx context.Context) (domain.AssetRef, error)
}

type Dependencies struct {
	Config   config.Config
	Session  *usecase.SessionLifecycle
	Ticker   *usecase.ElapsedTicker
	Feed     *statusfeed.Hub
	Metrics  http.Handler
	Assets   AssetResolver
	Printer  *Printer
	LookPath func(file string) (string, error)
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "calmspace",
		Short:         "Loop a rain ambience while you sleep",
		Long:          "Headless CalmSpace session: plays the ambient rain loop until stopped and optionally streams session status over a websocket.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.AddCommand(NewMonitorCmd(deps))
	rootCmd.AddCommand(NewWatchCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		},
	}
}
