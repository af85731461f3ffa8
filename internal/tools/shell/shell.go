// Package shell exposes sandboxed command execution and environment
// inspection as tools.
package shell

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hostbox/internal/confine"
	"hostbox/internal/sandbox"
	"hostbox/internal/tools"
)

// Config carries the settings shared by the shell tools.
type Config struct {
	// Root is the directory commands are confined to.
	Root string

	// DefaultTimeout applies when a request carries no timeout.
	DefaultTimeout time.Duration
}

// Register adds the shell tools to the registry.
func Register(reg *tools.Registry, cfg Config, engine *sandbox.Engine, logger *slog.Logger) {
	if cfg.DefaultTimeout == 0 {
		cfg.DefaultTimeout = sandbox.DefaultTimeout
	}
	reg.Register(&RunTool{cfg: cfg, engine: engine, logger: logger})
	reg.Register(&GetEnvTool{})
}

// RunTool executes a shell command inside the confined root.
type RunTool struct {
	cfg    Config
	engine *sandbox.Engine
	logger *slog.Logger
}

func (t *RunTool) Name() string { return "run_command" }

func (t *RunTool) Description() string {
	return "Execute a shell command in the working directory. Returns combined output, or an error description on failure."
}

func (t *RunTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to execute",
			},
			"working_dir": map[string]any{
				"type":        "string",
				"description": "Directory to run the command in, relative to the workspace root (default: the root itself)",
			},
			"timeout_ms": map[string]any{
				"type":        "integer",
				"description": "Timeout in milliseconds (default 30000; 0 or negative disables the timeout)",
			},
		},
		"required": []string{"command"},
	}
}

func (t *RunTool) Validate(params map[string]any) error {
	if _, err := tools.RequireString(params, "command"); err != nil {
		return err
	}
	if _, err := tools.OptionalInt(params, "timeout_ms", 0); err != nil {
		return err
	}
	return nil
}

func (t *RunTool) Execute(ctx context.Context, params map[string]any) (*tools.Result, error) {
	command, err := tools.RequireString(params, "command")
	if err != nil {
		return nil, err
	}

	dir := t.cfg.Root
	if wd := tools.OptionalString(params, "working_dir", ""); wd != "" {
		resolved, err := confine.Confine(t.cfg.Root, wd)
		if err != nil {
			return tools.FailureResult(fmt.Sprintf("Access denied: path '%s' is outside the allowed directory", wd)), nil
		}
		dir = resolved
	}

	// Presence decides, not the value: an explicit 0 or negative timeout
	// disables the bound entirely.
	timeout := t.cfg.DefaultTimeout
	if _, present := params["timeout_ms"]; present {
		ms, err := tools.OptionalInt(params, "timeout_ms", 0)
		if err != nil {
			return nil, err
		}
		if ms <= 0 {
			timeout = 0
		} else {
			timeout = time.Duration(ms) * time.Millisecond
		}
	}

	t.logger.Debug("running command", "command", command, "dir", dir, "timeout", timeout)
	res := t.engine.Execute(ctx, sandbox.Request{
		Command: command,
		Dir:     dir,
		Env:     sandbox.ProcessEnv(),
		Timeout: timeout,
	})

	out := &tools.Result{
		Output:  tools.TruncateOutput(res.Text(), tools.MaxOutputBytes),
		Success: res.Outcome == sandbox.Succeeded,
		Metadata: map[string]any{
			"outcome":     res.Outcome.String(),
			"exit_code":   res.ExitCode,
			"duration_ms": res.Duration.Milliseconds(),
		},
	}
	return out, nil
}

// GetEnvTool reports the value of a single environment variable.
type GetEnvTool struct{}

func (t *GetEnvTool) Name() string { return "get_env" }

func (t *GetEnvTool) Description() string {
	return "Read the value of an environment variable visible to executed commands."
}

func (t *GetEnvTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "Name of the environment variable",
			},
		},
		"required": []string{"name"},
	}
}

func (t *GetEnvTool) Validate(params map[string]any) error {
	_, err := tools.RequireString(params, "name")
	return err
}

func (t *GetEnvTool) Execute(_ context.Context, params map[string]any) (*tools.Result, error) {
	name, err := tools.RequireString(params, "name")
	if err != nil {
		return nil, err
	}
	// Consult the same assembled environment spawned commands receive,
	// so a repaired PATH is reported as the commands see it.
	value, ok := sandbox.Lookup(sandbox.ProcessEnv(), name)
	if !ok {
		return tools.FailureResult(fmt.Sprintf("Environment variable %s is not set", name)), nil
	}
	return tools.TextResult(value), nil
}
