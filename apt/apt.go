// Package apt drives apt-get: pending-update queries via simulation, the
// real (or simulated) upgrade, and reboot-marker detection.
package apt

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/vcnkl/sigpatch/exec"
	"github.com/vcnkl/sigpatch/logger"
)

// RebootMarker is the file apt's update-notifier drops when an installed
// package wants a reboot.
const RebootMarker = "/var/run/reboot-required"

// instPrefix marks install-action lines in apt-get simulation output; the
// package name is the second whitespace-delimited field.
const instPrefix = "Inst "

// upgradedSummary matches apt-get's count-prefixed summary line, e.g.
// "3 upgraded, 0 newly installed, 0 to remove and 0 not upgraded."
var upgradedSummary = regexp.MustCompile(`(?m)^[0-9]+ upgraded`)

// Manager shells out to apt-get. DryRun substitutes simulation for every
// mutating command.
type Manager struct {
	Runner      exec.Runner
	Log         logger.Logger
	DistUpgrade bool
	DryRun      bool
	MarkerPath  string
}

func New(runner exec.Runner, log logger.Logger, distUpgrade, dryRun bool) *Manager {
	return &Manager{
		Runner:      runner,
		Log:         log.WithPrefix("apt"),
		DistUpgrade: distUpgrade,
		DryRun:      dryRun,
		MarkerPath:  RebootMarker,
	}
}

func (m *Manager) env() []string {
	return append(os.Environ(), "LANG=C", "DEBIAN_FRONTEND=noninteractive")
}

func (m *Manager) run(ctx context.Context, cmd string) (string, error) {
	m.Log.Debug("running", logger.String("cmd", cmd))
	out, err := m.Runner.Run(ctx, cmd, &exec.ShellOptions{Env: m.env()})
	m.Log.Debug("finished", logger.String("cmd", cmd), logger.Err(err))
	return out, err
}

func (m *Manager) upgradeVerb() string {
	if m.DistUpgrade {
		return "dist-upgrade"
	}
	return "upgrade"
}

// Pending simulates an upgrade and returns the packages that would be
// installed, plus the raw output for logging.
func (m *Manager) Pending(ctx context.Context) ([]string, string, error) {
	out, err := m.run(ctx, "apt-get -s -y "+m.upgradeVerb())
	if err != nil {
		return nil, out, errors.Wrap(err, "pending-updates query failed")
	}
	return ParseInstalled(out), out, nil
}

// Refresh updates the package metadata. In dry-run mode the refresh is
// simulated so no lists are touched.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	if m.DryRun {
		return m.run(ctx, "apt-get -s update")
	}
	return m.run(ctx, "apt-get update -y")
}

// Upgrade applies pending upgrades, or simulates them in dry-run mode.
// The combined output is returned even on failure so the caller can scan
// it for problems.
func (m *Manager) Upgrade(ctx context.Context) (string, error) {
	if m.DryRun {
		return m.run(ctx, "apt-get -s -y "+m.upgradeVerb())
	}
	return m.run(ctx, "apt-get -y "+m.upgradeVerb())
}

// RebootRequired reports whether the reboot marker file exists.
func (m *Manager) RebootRequired() bool {
	_, err := os.Stat(m.MarkerPath)
	return err == nil
}

// ParseInstalled extracts package names from install-action lines: lines
// starting with "Inst ", second field.
func ParseInstalled(out string) []string {
	var pkgs []string
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, instPrefix) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			pkgs = append(pkgs, fields[1])
		}
	}
	return pkgs
}

// UpdatedFromOutput reports whether upgrade output indicates that anything
// was installed: either the count-prefixed summary line or any
// install-action line. The heuristic is intentionally loose; apt-get output
// is not a stable interface.
func UpdatedFromOutput(out string) bool {
	if upgradedSummary.MatchString(out) {
		return true
	}
	return strings.Contains(out, "\n"+instPrefix) || strings.HasPrefix(out, instPrefix)
}
