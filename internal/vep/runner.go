package vep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// CommandError reports a non-zero annotator exit.
type CommandError struct {
	Code   int
	Stderr string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("annotator command failed with exit code %d: %s", e.Code, e.Stderr)
}

// Runner executes the annotator described by a Config. The caller
// blocks until the child process exits; a timeout bounds hung
// annotator runs and kills the child on expiry.
type Runner struct {
	cfg     *Config
	timeout time.Duration
	logger  *zap.Logger
}

// NewRunner creates a runner. A zero timeout disables the bound.
func NewRunner(cfg *Config, timeout time.Duration) *Runner {
	return &Runner{
		cfg:     cfg,
		timeout: timeout,
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for command tracing.
func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Run builds the command line for the given per-job values and
// executes it. The argument list is structured, never passed through a
// shell. A non-zero exit maps to *CommandError; a timeout surfaces as
// a context.DeadlineExceeded-wrapped error after the child is killed.
func (r *Runner) Run(ctx context.Context, values map[string]string) error {
	args, err := r.cfg.BuildArgs(values)
	if err != nil {
		return err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.cfg.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Info("running annotator",
		zap.String("command", r.cfg.Command),
		zap.Strings("args", args))

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("annotator timed out after %s: %w", elapsed.Round(time.Second), ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &CommandError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return fmt.Errorf("start annotator: %w", err)
	}

	r.logger.Info("annotator finished", zap.Duration("elapsed", elapsed))
	return nil
}
