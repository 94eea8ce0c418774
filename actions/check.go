package actions

import (
	"context"
	"fmt"
	"os"

	"github.com/vcnkl/sigpatch/apt"
	"github.com/vcnkl/sigpatch/logger"
	"github.com/vcnkl/sigpatch/report"
)

// CheckAction lists the packages a run would upgrade, without taking the
// lock or touching the system. Optionally notifies the recipients.
type CheckAction struct {
	manager  *apt.Manager
	notifier Sender
	log      logger.Logger
}

func NewCheckAction(manager *apt.Manager, notifier Sender, log logger.Logger) *CheckAction {
	return &CheckAction{
		manager:  manager,
		notifier: notifier,
		log:      log,
	}
}

func (a *CheckAction) Execute(ctx context.Context, doNotify bool) ([]string, error) {
	pending, _, err := a.manager.Pending(ctx)
	if err != nil {
		return nil, err
	}

	for _, pkg := range pending {
		a.log.Info("pending", logger.String("package", pkg))
	}
	a.log.Info("check complete", logger.Int("pending", len(pending)))

	if doNotify && len(pending) > 0 {
		host, err := os.Hostname()
		if err != nil {
			host = "unknown"
		}
		a.notifier.Send(ctx, fmt.Sprintf("%s: %d pending updates: %s",
			host, len(pending), report.FormatList(pending, report.ListCap)))
	}

	return pending, nil
}
