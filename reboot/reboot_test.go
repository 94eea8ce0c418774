package reboot

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcnkl/sigpatch/exec"
	"github.com/vcnkl/sigpatch/logger"
)

type fakeRunner struct {
	calls []string
	err   error
}

func (r *fakeRunner) Run(_ context.Context, cmdStr string, _ *exec.ShellOptions) (string, error) {
	r.calls = append(r.calls, cmdStr)
	return "", r.err
}

func TestScheduler_Schedule(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(runner, logger.New(logger.ErrorLevel))

	err := s.Schedule(context.Background())
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "shutdown -r +1 '"+Reason+"'", runner.calls[0])
}

func TestScheduler_ScheduleError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("shutdown: command not found")}
	s := NewScheduler(runner, logger.New(logger.ErrorLevel))

	err := s.Schedule(context.Background())
	assert.Error(t, err)
}
