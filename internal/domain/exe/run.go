package exe

import (
	"context"
	"time"
)

// Run statuses as reported by the runner.
const (
	StatusRunning = "running"
	StatusPassed  = "passed"
	StatusFailed  = "failed"
)

// Step is one executed test step.
type Step struct {
	Step      string    `json:"step"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// RunResult is the outcome of executing one desktop binary test.
type RunResult struct {
	ID            string    `json:"id"`
	TestName      string    `json:"testName"`
	AppPath       string    `json:"appPath"`
	Status        string    `json:"status"`
	Duration      int64     `json:"duration"` // milliseconds
	Steps         []Step    `json:"steps"`
	ErrorMessages []string  `json:"errorMessages"`
	CreatedAt     time.Time `json:"createdAt"`
}

// StepsPassed counts the steps whose status is "passed".
func (r *RunResult) StepsPassed() int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == StatusPassed {
			n++
		}
	}
	return n
}

// RunConfig untuk Runner
type RunConfig struct {
	TestName string        `json:"testName"`
	AppPath  string        `json:"appPath"`
	Args     []string      `json:"args,omitempty"`
	Script   string        `json:"testScript,omitempty"` // JSON step script, runner-defined
	Timeout  time.Duration `json:"-"`
}

// Runner port (interface untuk eksekusi binary)
type Runner interface {
	Run(ctx context.Context, cfg RunConfig) (*RunResult, error)
}

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, r *RunResult) error
	Get(ctx context.Context, id string) (*RunResult, error)
	Latest(ctx context.Context, limit int) ([]*RunResult, error)
}
