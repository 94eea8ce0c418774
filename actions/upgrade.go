package actions

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vcnkl/sigpatch/apt"
	"github.com/vcnkl/sigpatch/classify"
	"github.com/vcnkl/sigpatch/config"
	"github.com/vcnkl/sigpatch/logger"
	"github.com/vcnkl/sigpatch/models"
	"github.com/vcnkl/sigpatch/reboot"
	"github.com/vcnkl/sigpatch/report"
)

// Sender is what the upgrade pipeline needs from a notifier.
type Sender interface {
	Send(ctx context.Context, message string)
}

// RebootScheduler schedules the delayed reboot.
type RebootScheduler interface {
	Schedule(ctx context.Context) error
}

// UpgradeAction runs the whole pipeline: pending query, metadata refresh,
// upgrade, classification, report, notification, and the optional reboot.
// Every stage runs; failures along the way become problem entries in the
// final report instead of aborting.
type UpgradeAction struct {
	settings  *config.Settings
	manager   *apt.Manager
	notifier  Sender
	scheduler RebootScheduler
	log       logger.Logger
	logPath   string
}

func NewUpgradeAction(settings *config.Settings, manager *apt.Manager, notifier Sender, scheduler RebootScheduler, log logger.Logger, logPath string) *UpgradeAction {
	return &UpgradeAction{
		settings:  settings,
		manager:   manager,
		notifier:  notifier,
		scheduler: scheduler,
		log:       log,
		logPath:   logPath,
	}
}

func (a *UpgradeAction) Execute(ctx context.Context) (*models.Outcome, error) {
	start := time.Now()
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	a.log.Info("starting upgrade run",
		logger.String("host", host),
		logger.Bool("dry_run", a.settings.DryRun),
		logger.Bool("dist_upgrade", a.settings.DistUpgrade))

	var problems []string

	pending, pendingOut, err := a.manager.Pending(ctx)
	if err != nil {
		a.log.Warn("pending-updates query failed", logger.Err(err))
	}
	a.log.Debug("pending query output", logger.String("output", pendingOut))
	a.log.Info("pending updates", logger.Int("count", len(pending)))

	refreshOut, err := a.manager.Refresh(ctx)
	a.log.Debug("refresh output", logger.String("output", refreshOut))
	if err != nil && !a.settings.DryRun {
		a.log.Warn("metadata refresh failed, continuing", logger.Err(err))
		problems = append(problems,
			fmt.Sprintf("apt-get update failed (%v):\n%s", err, classify.Tail(refreshOut, 10)))
	}

	upgradeOut, err := a.manager.Upgrade(ctx)
	a.log.Debug("upgrade output", logger.String("output", upgradeOut))
	if err != nil {
		a.log.Warn("upgrade command failed, continuing", logger.Err(err))
	}

	outcome := &models.Outcome{Pending: pending}

	if a.settings.DryRun {
		// Nothing was applied; the pending list should be unchanged.
		requeried, _, err := a.manager.Pending(ctx)
		if err != nil {
			a.log.Warn("pending re-query failed", logger.Err(err))
		}
		a.log.Info("dry run complete, nothing applied",
			logger.Int("still_pending", len(requeried)))
	} else {
		outcome.Updated = apt.UpdatedFromOutput(upgradeOut)
		outcome.UpdatedPackages = apt.ParseInstalled(upgradeOut)
		outcome.RebootRequired = a.manager.RebootRequired()

		if entry, ok := classify.Scan("apt-get "+upgradeVerb(a.settings), upgradeOut); ok {
			problems = append(problems, entry)
		}
	}

	outcome.NotUpdated = classify.NotUpdated(pending, outcome.UpdatedPackages)
	outcome.Problems = problems
	outcome.Status = models.StatusSuccess
	if len(problems) > 0 {
		outcome.Status = models.StatusProblem
	}
	outcome.Run = models.RunContext{
		Host:     host,
		Start:    start,
		End:      time.Now(),
		Duration: time.Since(start),
	}

	summary := report.Render(outcome, a.logPath)
	a.log.Info("run summary",
		logger.Bool("updated", outcome.Updated),
		logger.Bool("reboot_required", outcome.RebootRequired),
		logger.String("status", string(outcome.Status)),
		logger.Int("updated_packages", len(outcome.UpdatedPackages)),
		logger.Int("not_updated", len(outcome.NotUpdated)),
		logger.Int("problems", len(outcome.Problems)),
		logger.Duration("duration", outcome.Run.Duration))

	a.notifier.Send(ctx, summary)

	a.maybeScheduleReboot(ctx, outcome, host)

	return outcome, nil
}

func (a *UpgradeAction) maybeScheduleReboot(ctx context.Context, outcome *models.Outcome, host string) {
	if !outcome.RebootRequired || !a.settings.RebootIfRequired || a.settings.DryRun {
		return
	}

	a.log.Warn("reboot required, scheduling")
	a.notifier.Send(ctx, fmt.Sprintf("%s: rebooting in 1 minute (%s)", host, reboot.Reason))

	if err := a.scheduler.Schedule(ctx); err != nil {
		a.log.Error("failed to schedule reboot", logger.Err(err))
	}
}

func upgradeVerb(settings *config.Settings) string {
	if settings.DistUpgrade {
		return "dist-upgrade"
	}
	return "upgrade"
}
