// Package runner invokes external tools and captures what they print.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Result struct {
	Command  string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command  string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	cmd := strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
	msg := fmt.Sprintf("%s failed with exit code %d", cmd, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// Check turns a non-zero result into an *ExitError.
func Check(res *Result) error {
	if res == nil || res.ExitCode == 0 {
		return nil
	}
	return &ExitError{
		Command:  res.Command,
		Args:     res.Args,
		ExitCode: res.ExitCode,
		Stderr:   res.Stderr,
	}
}

type ExecRunner struct {
	Dir    string
	Logger *zap.Logger
}

func NewExecRunner(dir string, logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{Dir: dir, Logger: logger}
}

// Run returns an error only when the process could not be started or
// waited on; a non-zero exit is reported through Result.ExitCode.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Logger.Debug("running command",
		zap.String("command", name),
		zap.Strings("args", args),
		zap.String("dir", r.Dir))

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Command:  name,
		Args:     args,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, fmt.Errorf("run %s: %w", name, err)
	}

	r.Logger.Debug("command finished",
		zap.String("command", name),
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("duration", res.Duration))
	return res, nil
}
