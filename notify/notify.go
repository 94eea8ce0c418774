// Package notify delivers messages through the signal-cli executable.
// Delivery is best-effort: every failure is logged and swallowed, a
// missing configuration or binary degrades to a no-op.
package notify

import (
	"context"
	osexec "os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/vcnkl/sigpatch/config"
	"github.com/vcnkl/sigpatch/logger"
)

// Executable is the messaging client looked up on PATH.
const Executable = "signal-cli"

// Notifier sends one message per recipient. RunAs, when set, delegates the
// invocation to that OS user via runuser. LookPath and Exec default to the
// real thing and exist as fields so tests can count invocations.
type Notifier struct {
	Sender     string
	Recipients []string
	RunAs      string

	LookPath func(file string) (string, error)
	Exec     func(ctx context.Context, name string, args ...string) error

	log logger.Logger
}

func New(settings *config.Settings, log logger.Logger) *Notifier {
	return &Notifier{
		Sender:     settings.SignalNumber,
		Recipients: settings.Recipients,
		RunAs:      settings.SignalUser,
		LookPath:   osexec.LookPath,
		Exec:       runCommand,
		log:        log.WithPrefix("notify"),
	}
}

// Send delivers message to every configured recipient. Preconditions are
// checked in order and each unmet one turns the call into a logged no-op.
// Backslash escapes in the message are expanded exactly once. A failed
// delivery does not stop the remaining recipients.
func (n *Notifier) Send(ctx context.Context, message string) {
	if n.Sender == "" {
		n.log.Info("no sender number configured, skipping notification")
		return
	}
	if len(n.Recipients) == 0 {
		n.log.Info("no recipients configured, skipping notification")
		return
	}
	if _, err := n.LookPath(Executable); err != nil {
		n.log.Warn("messaging client not found, skipping notification",
			logger.String("executable", Executable))
		return
	}

	body := ExpandEscapes(message)

	for _, recipient := range n.Recipients {
		name, args := n.command(body, recipient)
		if err := n.Exec(ctx, name, args...); err != nil {
			n.log.Warn("delivery failed",
				logger.String("recipient", recipient), logger.Err(err))
			continue
		}
		n.log.Debug("delivered", logger.String("recipient", recipient))
	}
}

func (n *Notifier) command(body, recipient string) (string, []string) {
	args := []string{"-u", n.Sender, "send", "-m", body, recipient}
	if n.RunAs != "" {
		return "runuser", append([]string{"-u", n.RunAs, "--", Executable}, args...)
	}
	return Executable, args
}

// ExpandEscapes turns literal \n and \t sequences into real control
// characters, once.
func ExpandEscapes(s string) string {
	return strings.NewReplacer(`\n`, "\n", `\t`, "\t").Replace(s)
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := osexec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *osexec.ExitError
		if errors.As(err, &exitErr) {
			return errors.Errorf("%s exited with status %d: %s",
				name, exitErr.ExitCode(), strings.TrimSpace(string(out)))
		}
		return errors.Wrapf(err, "failed to run %s", name)
	}
	return nil
}
