package integration

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func buildSigpatchBinary(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	binaryPath := filepath.Join(tmpDir, "sigpatch")

	moduleDir, _ := filepath.Abs("..")
	t.Logf("Building sigpatch from: %s", moduleDir)

	cmd := exec.Command("go", "build", "-a", "-o", binaryPath, ".")
	cmd.Dir = moduleDir
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0", "GOOS=linux", "GOARCH=amd64")
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build sigpatch binary: %s", string(output))

	return binaryPath
}

func startTestContainer(t *testing.T, ctx context.Context) testcontainers.Container {
	t.Helper()

	binaryPath := buildSigpatchBinary(t)

	ctr, err := testcontainers.Run(ctx, "debian:bookworm-slim",
		testcontainers.WithFiles(
			testcontainers.ContainerFile{
				HostFilePath:      binaryPath,
				ContainerFilePath: "/usr/local/bin/sigpatch",
				FileMode:          0o755,
			},
		),
		testcontainers.WithCmd("tail", "-f", "/dev/null"),
		testcontainers.WithWaitStrategy(
			wait.ForExec([]string{"sh", "-c", "apt-get --version"}).
				WithStartupTimeout(120*time.Second).
				WithPollInterval(2*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	return ctr
}

func execInContainer(t *testing.T, ctx context.Context, ctr testcontainers.Container, script string) (int, string) {
	t.Helper()

	exitCode, reader, err := ctr.Exec(ctx, []string{"sh", "-c", script})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(reader)
	return exitCode, buf.String()
}

func skipUnlessIntegration(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("skipping integration test via SKIP_INTEGRATION env var")
	}
}

func TestIntegration_Check(t *testing.T) {
	skipUnlessIntegration(t)

	ctx := context.Background()
	ctr := startTestContainer(t, ctx)
	defer testcontainers.CleanupContainer(t, ctr)

	exitCode, out := execInContainer(t, ctx, ctr, "sigpatch check --debug")
	t.Logf("check output (exit %d): %s", exitCode, out)
	assert.Zero(t, exitCode, "check must succeed against real apt-get")
	assert.Contains(t, out, "check complete")
}

func TestIntegration_DryRun(t *testing.T) {
	skipUnlessIntegration(t)

	ctx := context.Background()
	ctr := startTestContainer(t, ctx)
	defer testcontainers.CleanupContainer(t, ctr)

	exitCode, out := execInContainer(t, ctx, ctr,
		"LOG_DIR=/tmp/sigpatch-logs sigpatch run --dry-run --debug")
	t.Logf("run output (exit %d): %s", exitCode, out)
	assert.Zero(t, exitCode, "dry run must succeed")
	assert.Contains(t, out, "dry run complete")
	assert.Contains(t, out, "run complete")

	// Without SIGNAL_NUMBER and recipients the notifier degrades silently.
	assert.Contains(t, out, "skipping notification")

	exitCode, out = execInContainer(t, ctx, ctr, "cat /tmp/sigpatch-logs/sigpatch.log")
	assert.Zero(t, exitCode, "run log must exist")
	assert.Contains(t, out, "run summary")
}

func TestIntegration_LockSkipsConcurrentRun(t *testing.T) {
	skipUnlessIntegration(t)

	ctx := context.Background()
	ctr := startTestContainer(t, ctx)
	defer testcontainers.CleanupContainer(t, ctr)

	// Hold the lock while a second run starts; the second must exit 0
	// without doing anything.
	script := `
LOG_DIR=/tmp/l1 sigpatch run --dry-run >/tmp/first.out 2>&1 &
first=$!
sleep 0.2
LOG_DIR=/tmp/l2 sigpatch run --dry-run >/tmp/second.out 2>&1
second=$?
wait $first
echo "second_exit=$second"
cat /tmp/second.out
`
	exitCode, out := execInContainer(t, ctx, ctr, script)
	t.Logf("lock test output (exit %d): %s", exitCode, out)
	assert.Zero(t, exitCode)
	assert.Contains(t, out, "second_exit=0")
}
