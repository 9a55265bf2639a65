package exerunner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/apptest-api/internal/domain/exe"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}
	path := filepath.Join(t.TempDir(), "app.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestRun(t *testing.T) {
	r := NewRunner()

	t.Run("passing_binary", func(t *testing.T) {
		path := writeScript(t, `
echo "booting"
echo "STEP boot PASS"
echo "STEP login PASS"
exit 0
`)
		res, err := r.Run(context.Background(), domain.RunConfig{TestName: "smoke", AppPath: path})
		require.NoError(t, err)

		require.Equal(t, domain.StatusPassed, res.Status)
		require.Len(t, res.Steps, 2)
		require.Equal(t, "boot", res.Steps[0].Step)
		require.Equal(t, domain.StatusPassed, res.Steps[0].Status)
		require.Empty(t, res.ErrorMessages)
	})

	t.Run("failing_binary", func(t *testing.T) {
		path := writeScript(t, `
echo "STEP boot PASS"
echo "STEP sync FAIL connection refused"
exit 3
`)
		res, err := r.Run(context.Background(), domain.RunConfig{TestName: "smoke", AppPath: path})
		require.NoError(t, err)

		require.Equal(t, domain.StatusFailed, res.Status)
		require.Len(t, res.Steps, 2)
		require.Equal(t, "sync", res.Steps[1].Step)
		require.Equal(t, domain.StatusFailed, res.Steps[1].Status)
		require.Contains(t, res.ErrorMessages, "connection refused")
	})

	t.Run("failure_without_step_message", func(t *testing.T) {
		path := writeScript(t, "exit 2\n")
		res, err := r.Run(context.Background(), domain.RunConfig{TestName: "smoke", AppPath: path})
		require.NoError(t, err)

		require.Equal(t, domain.StatusFailed, res.Status)
		require.Contains(t, res.ErrorMessages, "exit code 2")
	})

	t.Run("timeout", func(t *testing.T) {
		path := writeScript(t, "sleep 5\n")
		res, err := r.Run(context.Background(), domain.RunConfig{
			TestName: "slow",
			AppPath:  path,
			Timeout:  200 * time.Millisecond,
		})
		require.NoError(t, err)
		require.Equal(t, domain.StatusFailed, res.Status)
		require.Contains(t, res.ErrorMessages, "test timed out")
	})

	t.Run("missing_binary", func(t *testing.T) {
		_, err := r.Run(context.Background(), domain.RunConfig{TestName: "x", AppPath: "/does/not/exist"})
		require.Error(t, err)
	})

	t.Run("empty_path", func(t *testing.T) {
		_, err := r.Run(context.Background(), domain.RunConfig{TestName: "x"})
		require.Error(t, err)
	})

	t.Run("script_flag_forwarded", func(t *testing.T) {
		path := writeScript(t, `
if [ "$1" = "--test-script" ]; then
  echo "STEP script PASS"
  exit 0
fi
exit 1
`)
		res, err := r.Run(context.Background(), domain.RunConfig{
			TestName: "scripted",
			AppPath:  path,
			Script:   `[{"step":"script"}]`,
		})
		require.NoError(t, err)
		require.Equal(t, domain.StatusPassed, res.Status)
	})
}
