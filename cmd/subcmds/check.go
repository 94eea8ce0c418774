package subcmds

import (
	"github.com/urfave/cli/v2"

	"github.com/vcnkl/sigpatch/actions"
	"github.com/vcnkl/sigpatch/apt"
	"github.com/vcnkl/sigpatch/config"
	"github.com/vcnkl/sigpatch/exec"
	"github.com/vcnkl/sigpatch/logger"
	"github.com/vcnkl/sigpatch/notify"
)

func CheckCmd() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "List packages that would be upgraded, without applying anything",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "notify",
				Usage: "Also send the pending list to the configured recipients",
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

			// check is always a simulation; no lock, no root needed.
			manager := apt.New(exec.NewRunner(), log, settings.DistUpgrade, true)
			notifier := notify.New(settings, log)

			action := actions.NewCheckAction(manager, notifier, log)
			if _, err := action.Execute(ctx.Context, ctx.Bool("notify")); err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			return nil
		},
	}
}
