package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vcnkl/sigpatch/models"
)

func TestFormatList(t *testing.T) {
	long := make([]string, 35)
	for i := range long {
		long[i] = fmt.Sprintf("pkg%d", i)
	}

	tests := []struct {
		name     string
		items    []string
		max      int
		expected string
	}{
		{
			name:     "empty list",
			items:    nil,
			max:      30,
			expected: "(none)",
		},
		{
			name:     "single item",
			items:    []string{"bash"},
			max:      30,
			expected: "bash",
		},
		{
			name:     "under cap keeps order",
			items:    []string{"zlib", "apt", "bash"},
			max:      30,
			expected: "zlib, apt, bash",
		},
		{
			name:     "exactly at cap",
			items:    []string{"a", "b", "c"},
			max:      3,
			expected: "a, b, c",
		},
		{
			name:     "one over cap",
			items:    []string{"a", "b", "c", "d"},
			max:      3,
			expected: "a, b, c and 1 more",
		},
		{
			name:     "thirty-five over default cap",
			items:    long,
			max:      30,
			expected: strings.Join(long[:30], ", ") + " and 5 more",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatList(tt.items, tt.max))
		})
	}
}

func TestRender(t *testing.T) {
	outcome := &models.Outcome{
		Updated:         true,
		RebootRequired:  false,
		Status:          models.StatusSuccess,
		UpdatedPackages: []string{"openssl", "libssl3"},
		Pending:         []string{"openssl", "libssl3", "bash"},
		NotUpdated:      []string{"bash"},
		Run: models.RunContext{
			Host:     "web01",
			Duration: 42 * time.Second,
		},
	}

	got := Render(outcome, "/var/log/sigpatch/sigpatch.log")

	expected := "Host: web01\n" +
		"Updated: true\n" +
		"Reboot required: false\n" +
		"Duration: 42s\n" +
		"Updated packages: openssl, libssl3\n" +
		"Pending before run: openssl, libssl3, bash\n" +
		"Not updated: bash\n" +
		"Problems: none\n" +
		"Log: /var/log/sigpatch/sigpatch.log"
	assert.Equal(t, expected, got)
}

func TestRender_EmptyRun(t *testing.T) {
	outcome := &models.Outcome{
		Run: models.RunContext{Host: "web01"},
	}

	got := Render(outcome, "/tmp/run.log")

	assert.Contains(t, got, "Updated: false\n")
	assert.Contains(t, got, "Updated packages: (none)\n")
	assert.Contains(t, got, "Pending before run: (none)\n")
	assert.Contains(t, got, "Not updated: (none)\n")
	assert.Contains(t, got, "Problems: none\n")
}

func TestRender_ProblemsCapped(t *testing.T) {
	outcome := &models.Outcome{
		Status: models.StatusProblem,
		Run:    models.RunContext{Host: "web01"},
	}
	for i := 0; i < 25; i++ {
		outcome.Problems = append(outcome.Problems, fmt.Sprintf("problem %d", i))
	}

	got := Render(outcome, "/tmp/run.log")

	assert.Contains(t, got, "Problems (25):\n")
	assert.Contains(t, got, "- problem 0\n")
	assert.Contains(t, got, "- problem 19\n")
	assert.NotContains(t, got, "- problem 20\n")
}
