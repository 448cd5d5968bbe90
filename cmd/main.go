package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/airbusgeo/godal"
	"github.com/spf13/viper"

	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/cli"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/ui"
)

func main() {
	godal.RegisterAll()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(viper.New()).ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}
