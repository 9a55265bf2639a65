package exerunner

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	domain "github.com/bryanwahyu/apptest-api/internal/domain/exe"
)

const defaultTimeout = 5 * time.Minute

// Runner executes the application under test as a child process. The binary
// reports steps on stdout using a line protocol:
//
//	STEP <name> PASS
//	STEP <name> FAIL [message]
//
// Lines outside the protocol are ignored. Exit code 0 means the run passed.
type Runner struct{}

func NewRunner() *Runner { return &Runner{} }

func (r *Runner) Run(ctx context.Context, cfg domain.RunConfig) (*domain.RunResult, error) {
	if strings.TrimSpace(cfg.AppPath) == "" {
		return nil, fmt.Errorf("appPath is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res := &domain.RunResult{
		TestName:      cfg.TestName,
		AppPath:       cfg.AppPath,
		Status:        domain.StatusRunning,
		Steps:         []domain.Step{},
		ErrorMessages: []string{},
	}

	args := cfg.Args
	if cfg.Script != "" {
		args = append(append([]string{}, args...), "--test-script", cfg.Script)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, cfg.AppPath, args...)
	out, err := cmd.CombinedOutput()
	res.Duration = time.Since(start).Milliseconds()

	parseSteps(res, out)

	exitCode := 0
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		} else {
			// binary missing, not executable, etc. — a runner error, not a failed test
			return nil, fmt.Errorf("run error: %v, output=%s", err, string(out))
		}
	}
	if ctx.Err() == context.DeadlineExceeded {
		res.ErrorMessages = append(res.ErrorMessages, "test timed out")
		exitCode = -1
	}

	if exitCode == 0 {
		res.Status = domain.StatusPassed
	} else {
		res.Status = domain.StatusFailed
		if len(res.ErrorMessages) == 0 {
			res.ErrorMessages = append(res.ErrorMessages, fmt.Sprintf("exit code %d", exitCode))
		}
	}
	return res, nil
}

func parseSteps(res *domain.RunResult, out []byte) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "STEP ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		name := strings.Join(fields[1:len(fields)-1], " ")
		verdict := fields[len(fields)-1]

		// FAIL lines may trail a message after the verdict keyword
		if i := strings.Index(line, " FAIL "); i >= 0 {
			name = strings.TrimSpace(line[len("STEP "):i])
			verdict = "FAIL"
			if msg := strings.TrimSpace(line[i+len(" FAIL "):]); msg != "" {
				res.ErrorMessages = append(res.ErrorMessages, msg)
			}
		}

		status := domain.StatusFailed
		if verdict == "PASS" {
			status = domain.StatusPassed
		}
		res.Steps = append(res.Steps, domain.Step{
			Step:      name,
			Status:    status,
			Timestamp: time.Now(),
		})
	}
}
