package cmd

import (
	"github.com/vcnkl/sigpatch/cmd/subcmds"

	"github.com/urfave/cli/v2"
)

func NewApp() *cli.App {
	return &cli.App{
		Name:    "sigpatch",
		Usage:   "Unattended apt upgrades with Signal notifications",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to sigpatch.yml (default: search /etc/sigpatch/sigpatch.yml, /etc/sigpatch.yml, ./sigpatch.yml)",
			},
		},
		Commands: []*cli.Command{
			subcmds.RunCmd(),
			subcmds.CheckCmd(),
			subcmds.WatchCmd(),
		},
	}
}
