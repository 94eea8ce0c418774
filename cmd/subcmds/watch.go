package subcmds

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/vcnkl/sigpatch/apt"
	"github.com/vcnkl/sigpatch/config"
	"github.com/vcnkl/sigpatch/logger"
	"github.com/vcnkl/sigpatch/notify"
	"github.com/vcnkl/sigpatch/watcher"
)

func WatchCmd() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch the reboot-required marker and notify when it appears",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "marker",
				Value: apt.RebootMarker,
				Usage: "Marker file to watch",
			},
		},
		Action: func(ctx *cli.Context) error {
			settings, err := config.Load(ctx.String("config"))
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			level := logger.InfoLevel
			if ctx.Bool("debug") {
				level = logger.DebugLevel
			}
			log := logger.New(level)

			markerPath := ctx.String("marker")
			w, err := watcher.New(markerPath)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			notifier := notify.New(settings, log)
			host, err := os.Hostname()
			if err != nil {
				host = "unknown"
			}

			w.OnMarker(func() {
				log.Warn("reboot marker appeared", logger.String("path", markerPath))
				notifier.Send(ctx.Context, fmt.Sprintf("%s: a reboot is required to finish pending updates", host))
			})

			log.Info("watching reboot marker", logger.String("path", markerPath))
			if err := w.Start(ctx.Context); err != nil && !errors.Is(err, context.Canceled) {
				return cli.Exit("error: "+err.Error(), 1)
			}
			return nil
		},
	}
}
