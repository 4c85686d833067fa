package main

import (
	"fmt"
	"os"

	"calmspace/internal/bootstrap"
	"calmspace/internal/cli"
	"calmspace/internal/metrics"
)

func main() {
	printer := cli.NewPrinter(os.Stdout)
	if err := run(printer); err != nil {
		cli.NewPrinter(os.Stderr).Error(err.Error())
		os.Exit(1)
	}
}

func run(printer *cli.Printer) error {
	services, err := bootstrap.Build(printer)
	if err != nil {
		return fmt.Errorf("initializing services: %w", err)
	}

	deps := &cli.Dependencies{
		Config:  services.Config,
		Session: services.Session,
		Ticker:  services.Ticker,
		Feed:    services.Feed,
		Metrics: metrics.Handler(services.Registry),
		Assets:  services.Assets,
		Printer: printer,
	}

	return cli.NewRootCmd(deps).Execute()
}
