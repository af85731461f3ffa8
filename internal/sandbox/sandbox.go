// Package sandbox runs caller-supplied shell commands with a bounded
// lifetime and captured output. The guarantees are deliberately narrow:
// a confined working directory and time-bounded execution. It is not a
// container — no CPU, memory, or network isolation is applied.
package sandbox

import (
	"fmt"
	"strings"
	"time"
)

// Outcome is the terminal state of an execution attempt. Exactly one is
// reached per invocation.
type Outcome int

const (
	// Succeeded — the command exited with code 0.
	Succeeded Outcome = iota
	// Failed — the command ran and exited nonzero.
	Failed
	// TimedOut — the command exceeded its deadline and was killed.
	TimedOut
	// SpawnFailed — the shell could not be launched at all, including
	// working-directory precondition failures.
	SpawnFailed
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	case SpawnFailed:
		return "spawn_failed"
	default:
		return "unknown"
	}
}

// Request defines what to run and under what constraints.
type Request struct {
	// Command is the shell command line, interpreted by /bin/sh -c so
	// pipes, redirects, and globs behave as the caller expects.
	Command string

	// Dir is the working directory. It must already have passed the
	// confinement guard; the engine only verifies it exists.
	Dir string

	// Env is the full environment for the child, normally produced by
	// AssembleEnv.
	Env []string

	// Timeout bounds execution. Zero or negative disables the timeout.
	Timeout time.Duration
}

// Result is the tagged outcome of one execution. The taxonomy stays
// structured here for testability; Text renders the uniform
// always-a-string contract the tool surface exposes.
type Result struct {
	Outcome  Outcome
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Timeout  time.Duration

	// Err holds the spawn failure cause; nil for other outcomes.
	Err error

	// Canceled marks a termination caused by the caller's context
	// rather than the engine's own timer.
	Canceled bool

	// StdoutTruncated/StderrTruncated report that the capture cap was
	// hit and the remainder discarded.
	StdoutTruncated bool
	StderrTruncated bool
}

// Text renders the single human-readable result string. Every failure
// mode resolves here — nothing propagates past the engine as a fault.
func (r *Result) Text() string {
	switch r.Outcome {
	case Succeeded:
		out := r.Stdout
		if strings.TrimSpace(out) == "" {
			return "Command completed with no output"
		}
		if r.StdoutTruncated {
			out += truncationNotice
		}
		return out
	case Failed:
		body := r.Stderr
		truncated := r.StderrTruncated
		if strings.TrimSpace(body) == "" {
			body = r.Stdout
			truncated = r.StdoutTruncated
		}
		if strings.TrimSpace(body) == "" {
			return fmt.Sprintf("Command failed with exit code %d (no output)", r.ExitCode)
		}
		if truncated {
			body += truncationNotice
		}
		return fmt.Sprintf("Command failed with exit code %d:\n%s", r.ExitCode, body)
	case TimedOut:
		// Partial output is discarded on timeout by contract: the
		// notice is the entire result.
		if r.Canceled {
			return "Command canceled before completion"
		}
		return fmt.Sprintf("Command timed out after %dms", r.Timeout.Milliseconds())
	case SpawnFailed:
		return fmt.Sprintf("Failed to execute command: %v", r.Err)
	default:
		return fmt.Sprintf("Command ended in unknown state %d", r.Outcome)
	}
}

var truncationNotice = fmt.Sprintf("\n[output truncated at %d bytes]", maxOutputBytes)
