package subcmds

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/vcnkl/sigpatch/actions"
	"github.com/vcnkl/sigpatch/apt"
	"github.com/vcnkl/sigpatch/config"
	"github.com/vcnkl/sigpatch/exec"
	"github.com/vcnkl/sigpatch/lock"
	"github.com/vcnkl/sigpatch/logger"
	"github.com/vcnkl/sigpatch/notify"
	"github.com/vcnkl/sigpatch/reboot"
)

// LogFileName is the append-only log inside LOG_DIR.
const LogFileName = "sigpatch.log"

func RunCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Apply pending updates and notify the configured recipients",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Simulate everything, apply nothing (overrides DRY_RUN)",
			},
		},
		Action: func(ctx *cli.Context) error {
			settings, err := config.Load(ctx.String("config"))
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			if ctx.Bool("dry-run") {
				settings.DryRun = true
			}

			if !settings.DryRun && os.Geteuid() != 0 {
				return cli.Exit("error: must run as root (or use --dry-run)", 1)
			}

			log, logPath, closeLog := newRunLogger(ctx.Bool("debug"), settings.LogDir)
			defer closeLog()

			lk, err := lock.Acquire(lock.DefaultPath)
			if errors.Is(err, lock.ErrHeld) {
				log.Info("another sigpatch run is in progress, skipping")
				return nil
			}
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			defer lk.Release()

			runner := exec.NewRunner()
			manager := apt.New(runner, log, settings.DistUpgrade, settings.DryRun)
			notifier := notify.New(settings, log)
			scheduler := reboot.NewScheduler(runner, log)

			action := actions.NewUpgradeAction(settings, manager, notifier, scheduler, log, logPath)
			outcome, err := action.Execute(ctx.Context)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			log.Info("run complete", logger.String("status", string(outcome.Status)))
			return nil
		},
	}
}

// newRunLogger builds a logger that also appends to LOG_DIR/sigpatch.log.
// A log directory that cannot be used degrades to console-only logging.
func newRunLogger(debug bool, logDir string) (logger.Logger, string, func()) {
	level := logger.InfoLevel
	if debug {
		level = logger.DebugLevel
	}

	logPath := filepath.Join(logDir, LogFileName)

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log := logger.New(level)
		log.Warn("cannot create log directory, logging to console only",
			logger.String("dir", logDir), logger.Err(err))
		return log, logPath, func() {}
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log := logger.New(level)
		log.Warn("cannot open log file, logging to console only",
			logger.String("path", logPath), logger.Err(err))
		return log, logPath, func() {}
	}

	var w io.WriteCloser = f
	return logger.New(level, w), logPath, func() { _ = w.Close() }
}
