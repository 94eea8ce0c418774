package exec

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bitfield/script"
)

// Runner executes a shell command and returns its combined output. The
// output is returned even when the command fails, since callers scan it for
// problems rather than discarding it.
type Runner interface {
	Run(ctx context.Context, cmdStr string, opts *ShellOptions) (string, error)
}

type ShellOptions struct {
	Env   []string
	Shell string
}

// ShellRunner runs commands through a shell, stderr merged into stdout.
type ShellRunner struct{}

func NewRunner() *ShellRunner {
	return &ShellRunner{}
}

func (r *ShellRunner) Run(ctx context.Context, cmdStr string, opts *ShellOptions) (string, error) {
	if opts == nil {
		opts = &ShellOptions{}
	}
	if opts.Shell == "" {
		opts.Shell = "/usr/bin/env bash"
	}

	env := opts.Env
	if env == nil {
		env = os.Environ()
	}

	shellParts := strings.Fields(opts.Shell)
	shellCmd := shellParts[0]
	shellArgs := shellParts[1:]

	wrappedCmd := fmt.Sprintf("(\n%s\n) 2>&1", cmdStr)

	fullCmd := shellCmd
	for _, arg := range shellArgs {
		fullCmd += " " + arg
	}
	fullCmd += " -c " + shellQuote(wrappedCmd)

	type outcome struct {
		out string
		err error
	}

	done := make(chan outcome, 1)
	go func() {
		pipe := script.NewPipe().WithEnv(env).Exec(fullCmd)
		out, err := pipe.String()
		exitStatus := pipe.ExitStatus()
		if err == nil && exitStatus != 0 {
			err = fmt.Errorf("command exited with status %d", exitStatus)
		}
		done <- outcome{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case o := <-done:
		return o.out, o.err
	}
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\"'\"'") + "'"
}
