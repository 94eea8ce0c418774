// Package reboot schedules the delayed system reboot after an upgrade
// that requires one.
package reboot

import (
	"context"

	"github.com/pkg/errors"

	"github.com/vcnkl/sigpatch/exec"
	"github.com/vcnkl/sigpatch/logger"
)

const (
	// Delay is handed to shutdown(8); one minute gives the notification a
	// chance to leave the host first.
	Delay  = "+1"
	Reason = "sigpatch: reboot required after package upgrade"
)

// Scheduler fires a delayed reboot and does not wait for it.
type Scheduler struct {
	Runner exec.Runner
	log    logger.Logger
}

func NewScheduler(runner exec.Runner, log logger.Logger) *Scheduler {
	return &Scheduler{
		Runner: runner,
		log:    log.WithPrefix("reboot"),
	}
}

// Schedule requests a reboot in one minute with a fixed reason.
func (s *Scheduler) Schedule(ctx context.Context) error {
	s.log.Warn("scheduling reboot", logger.String("delay", Delay))

	out, err := s.Runner.Run(ctx, "shutdown -r "+Delay+" '"+Reason+"'", nil)
	if err != nil {
		return errors.Wrapf(err, "failed to schedule reboot: %s", out)
	}
	return nil
}
