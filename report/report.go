// Package report renders a run outcome into the fixed multi-line summary
// that is logged and sent out. The format is a textual contract; changing
// it breaks consumers that parse the notification.
package report

import (
	"fmt"
	"strings"

	"github.com/vcnkl/sigpatch/models"
)

const (
	// ListCap bounds each package list in the summary.
	ListCap = 30
	// ProblemCap bounds the problem section.
	ProblemCap = 20
)

// FormatList renders items comma-joined up to max entries, with an
// "and N more" suffix when truncated, or "(none)" for an empty list.
func FormatList(items []string, max int) string {
	if len(items) == 0 {
		return "(none)"
	}
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(items[:max], ", "), len(items)-max)
}

// Render produces the summary block in fixed order: host, updated flag,
// reboot flag, duration in whole seconds, the three package lists, the
// problem list, and the log path.
func Render(o *models.Outcome, logPath string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Host: %s\n", o.Run.Host)
	fmt.Fprintf(&b, "Updated: %t\n", o.Updated)
	fmt.Fprintf(&b, "Reboot required: %t\n", o.RebootRequired)
	fmt.Fprintf(&b, "Duration: %ds\n", int(o.Run.Duration.Seconds()))
	fmt.Fprintf(&b, "Updated packages: %s\n", FormatList(o.UpdatedPackages, ListCap))
	fmt.Fprintf(&b, "Pending before run: %s\n", FormatList(o.Pending, ListCap))
	fmt.Fprintf(&b, "Not updated: %s\n", FormatList(o.NotUpdated, ListCap))

	if len(o.Problems) == 0 {
		b.WriteString("Problems: none\n")
	} else {
		fmt.Fprintf(&b, "Problems (%d):\n", len(o.Problems))
		problems := o.Problems
		if len(problems) > ProblemCap {
			problems = problems[:ProblemCap]
		}
		for _, p := range problems {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}

	fmt.Fprintf(&b, "Log: %s", logPath)

	return b.String()
}
