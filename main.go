package main

import (
	"fmt"
	"os"

	"github.com/nareynolds/dicommanager-go/cmd"
	"github.com/nareynolds/dicommanager-go/internal/config"
	"github.com/nareynolds/dicommanager-go/internal/logging"
)

func main() {
	ctx, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	settings := ctx.Settings
	if settings.Log.Enabled {
		logger, closeLogger, err := logging.NewFileLogger(settings.Log.Path, settings.Debug)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer func() {
			_ = closeLogger()
		}()
		ctx.Logger = logger
	} else {
		ctx.Logger = logging.New(os.Stderr, settings.Debug)
	}

	rootCmd := cmd.RootCommand(ctx)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
