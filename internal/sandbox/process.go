package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"
)

const (
	// maxOutputBytes caps each captured stream to prevent OOM from
	// chatty commands. Excess output is discarded and the rendered text
	// carries a truncation notice.
	maxOutputBytes = 1 << 20 // 1 MiB

	// DefaultTimeout applies when the caller does not specify one.
	DefaultTimeout = 30 * time.Second
)

// Engine spawns shell commands and resolves every attempt to exactly one
// terminal outcome. It holds no per-invocation state; each Execute call
// owns its child process, buffers, and timer exclusively.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a process execution engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// Execute runs the command and returns its tagged result. It never
// returns an error: all failure paths collapse into the Result so the
// caller always has one text to hand back.
func (e *Engine) Execute(ctx context.Context, req Request) *Result {
	res := &Result{Timeout: req.Timeout}

	// Working-directory precondition: checked before anything spawns.
	info, err := os.Stat(req.Dir)
	if err != nil {
		res.Outcome = SpawnFailed
		res.Err = fmt.Errorf("working directory does not exist: %s", req.Dir)
		return res
	}
	if !info.IsDir() {
		res.Outcome = SpawnFailed
		res.Err = fmt.Errorf("working directory is not a directory: %s", req.Dir)
		return res
	}

	// The deadline context is the completion signal: process exit and
	// timer expiry race inside exec, and cancel() makes the timer's
	// cancellation idempotent on every exit path.
	runCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", req.Command)
	cmd.Dir = req.Dir
	cmd.Env = req.Env

	// Own process group, so a timeout kills the shell and everything it
	// spawned, and releases both output pipes.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		// Negative PID = the whole process group.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	var stdout, stderr bytes.Buffer
	outW := &limitedWriter{w: &stdout, remaining: maxOutputBytes}
	errW := &limitedWriter{w: &stderr, remaining: maxOutputBytes}
	cmd.Stdout = outW
	cmd.Stderr = errW

	e.logger.Debug("executing command",
		slog.String("command", req.Command),
		slog.String("dir", req.Dir),
		slog.Duration("timeout", req.Timeout),
	)

	start := time.Now()
	runErr := cmd.Run()
	res.Duration = time.Since(start)

	// Both streams are fully drained once Run returns; the buffers are
	// complete (up to the cap) before any result is constructed.
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	res.StdoutTruncated = outW.truncated
	res.StderrTruncated = errW.truncated

	switch {
	case runErr == nil:
		res.Outcome = Succeeded
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Outcome = TimedOut
	case errors.Is(ctx.Err(), context.Canceled):
		res.Outcome = TimedOut
		res.Canceled = true
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.Outcome = Failed
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.Outcome = SpawnFailed
			res.Err = runErr
		}
	}

	e.logger.Debug("command finished",
		slog.String("outcome", res.Outcome.String()),
		slog.Int("exit_code", res.ExitCode),
		slog.Duration("duration", res.Duration),
		slog.Int("stdout_bytes", len(res.Stdout)),
		slog.Int("stderr_bytes", len(res.Stderr)),
	)

	return res
}

// limitedWriter wraps a writer and stops writing after a byte limit.
// Excess data is silently discarded, not an error.
type limitedWriter struct {
	w         io.Writer
	remaining int
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	total := len(p)
	if lw.remaining <= 0 {
		lw.truncated = true
		return total, nil
	}
	if total > lw.remaining {
		lw.truncated = true
		p = p[:lw.remaining]
	}
	n, err := lw.w.Write(p)
	lw.remaining -= n
	if err != nil {
		return n, err
	}
	// Report the full slice as consumed so the drain never stalls on a
	// short write once the cap is reached.
	return total, nil
}
