// Package file implements the confined filesystem tools: list, read,
// write, edit, and delete. Every path argument passes through the
// confinement guard before any I/O; a rejection short-circuits with an
// access-denied text and no filesystem call is made.
//
// Mutations are visible only on success — every precondition (existence,
// regular-file checks, confinement) is verified before a single byte is
// written or removed.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pmezard/go-difflib/difflib"

	"hostbox/internal/confine"
	"hostbox/internal/tools"
)

// Config configures the filesystem tool set.
type Config struct {
	// Root is the absolute, cleaned confinement root.
	Root string

	// MaxFileSizeBytes bounds read/write payloads. 0 = 10 MiB default.
	MaxFileSizeBytes int64
}

const defaultMaxFileSize = 10 << 20 // 10 MiB

func (c Config) maxSize() int64 {
	if c.MaxFileSizeBytes > 0 {
		return c.MaxFileSizeBytes
	}
	return defaultMaxFileSize
}

// deniedResult renders a confinement rejection. The raw caller-supplied
// path is echoed back, never the resolved one.
func deniedResult(raw string) *tools.Result {
	return tools.FailureResult(fmt.Sprintf("Access denied: path '%s' is outside the allowed directory", raw))
}

func notFoundResult(raw string) *tools.Result {
	return tools.FailureResult(fmt.Sprintf("File not found: %s", raw))
}

func notAFileResult(raw string) *tools.Result {
	return tools.FailureResult(fmt.Sprintf("Not a file: %s", raw))
}

// Register adds all five filesystem tools to the registry.
func Register(reg *tools.Registry, cfg Config, logger *slog.Logger) {
	reg.Register(&ListTool{cfg: cfg, logger: logger})
	reg.Register(&ReadTool{cfg: cfg, logger: logger})
	reg.Register(&WriteTool{cfg: cfg, logger: logger})
	reg.Register(&EditTool{cfg: cfg, logger: logger})
	reg.Register(&DeleteTool{cfg: cfg, logger: logger})
}

// ---- list_files ----

// ListTool recursively enumerates files under a confined subdirectory and
// filters them by a glob pattern applied to the root-relative path.
type ListTool struct {
	cfg    Config
	logger *slog.Logger
}

func (t *ListTool) Name() string { return "list_files" }
func (t *ListTool) Description() string {
	return "List files matching a glob pattern, recursively, relative to the workspace root"
}
func (t *ListTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pattern":   map[string]any{"type": "string", "description": "Glob pattern matched against root-relative paths (doublestar '**' supported)"},
			"directory": map[string]any{"type": "string", "description": "Subdirectory to search. Defaults to the workspace root"},
		},
		"required": []string{"pattern"},
	}
}

func (t *ListTool) Validate(params map[string]any) error {
	pattern, err := tools.RequireString(params, "pattern")
	if err != nil {
		return err
	}
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid glob pattern %q", pattern)
	}
	return nil
}

func (t *ListTool) Execute(ctx context.Context, params map[string]any) (*tools.Result, error) {
	pattern, err := tools.RequireString(params, "pattern")
	if err != nil {
		return nil, err
	}
	dirArg := tools.OptionalString(params, "directory", "")

	resolved, err := confine.Confine(t.cfg.Root, dirArg)
	if err != nil {
		return deniedResult(dirArg), nil
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return tools.FailureResult(fmt.Sprintf("Directory not found: %s", displayPath(dirArg))), nil
	}
	if !info.IsDir() {
		return tools.FailureResult(fmt.Sprintf("Not a directory: %s", displayPath(dirArg))), nil
	}

	t.logger.Debug("list_files executing",
		slog.String("pattern", pattern),
		slog.String("dir", resolved),
	)

	var matched []string
	walkErr := filepath.WalkDir(resolved, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel := confine.Rel(t.cfg.Root, p)
		if matchPattern(pattern, rel) {
			matched = append(matched, rel)
		}
		return nil
	})
	if walkErr != nil {
		return tools.FailureResult(fmt.Sprintf("Failed to list files: %v", walkErr)), nil
	}

	if len(matched) == 0 {
		return tools.FailureResult(fmt.Sprintf("No files matching pattern '%s'", pattern)), nil
	}
	sort.Strings(matched)
	return &tools.Result{
		Output:   tools.TruncateOutput(strings.Join(matched, "\n"), tools.MaxOutputBytes),
		Success:  true,
		Metadata: map[string]any{"count": len(matched)},
	}, nil
}

// matchPattern matches the root-relative path; a bare pattern with no
// separator additionally matches the basename, so "*.txt" finds nested
// text files the way flat patterns behaved upstream.
func matchPattern(pattern, rel string) bool {
	ok, err := doublestar.Match(pattern, filepath.ToSlash(rel))
	if err != nil {
		return false
	}
	if ok {
		return true
	}
	if !strings.ContainsRune(pattern, '/') {
		ok, _ = doublestar.Match(pattern, filepath.Base(rel))
	}
	return ok
}

func displayPath(raw string) string {
	if raw == "" {
		return "."
	}
	return raw
}

// ---- read_file ----

// ReadTool returns the full text of a regular file under the root.
type ReadTool struct {
	cfg    Config
	logger *slog.Logger
}

func (t *ReadTool) Name() string        { return "read_file" }
func (t *ReadTool) Description() string { return "Read the contents of a file in the workspace" }
func (t *ReadTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "Path to the file, relative to the workspace root"},
		},
		"required": []string{"path"},
	}
}

func (t *ReadTool) Validate(params map[string]any) error {
	_, err := tools.RequireString(params, "path")
	return err
}

func (t *ReadTool) Execute(ctx context.Context, params map[string]any) (*tools.Result, error) {
	raw, err := tools.RequireString(params, "path")
	if err != nil {
		return nil, err
	}
	resolved, err := confine.Confine(t.cfg.Root, raw)
	if err != nil {
		return deniedResult(raw), nil
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return notFoundResult(raw), nil
	}
	if !info.Mode().IsRegular() {
		return notAFileResult(raw), nil
	}
	if info.Size() > t.cfg.maxSize() {
		return tools.FailureResult(fmt.Sprintf("File exceeds maximum size of %d bytes: %s", t.cfg.maxSize(), raw)), nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return tools.FailureResult(fmt.Sprintf("Failed to read file: %v", err)), nil
	}

	t.logger.Debug("read_file executing",
		slog.String("path", resolved),
		slog.Int("bytes", len(data)),
	)
	return &tools.Result{
		Output:   tools.TruncateOutput(string(data), tools.MaxOutputBytes),
		Success:  true,
		Metadata: map[string]any{"size_bytes": info.Size()},
	}, nil
}

// ---- write_file ----

// WriteTool creates or overwrites a file under the root, creating parent
// directories as needed.
type WriteTool struct {
	cfg    Config
	logger *slog.Logger
}

func (t *WriteTool) Name() string        { return "write_file" }
func (t *WriteTool) Description() string { return "Create or overwrite a file in the workspace" }
func (t *WriteTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]any{"type": "string", "description": "Path to the file, relative to the workspace root"},
			"content": map[string]any{"type": "string", "description": "Content to write"},
		},
		"required": []string{"path", "content"},
	}
}

func (t *WriteTool) Validate(params map[string]any) error {
	if _, err := tools.RequireString(params, "path"); err != nil {
		return err
	}
	content, ok := params["content"].(string)
	if !ok {
		return errors.New("missing required parameter: content")
	}
	if int64(len(content)) > t.cfg.maxSize() {
		return fmt.Errorf("content exceeds maximum size of %d bytes", t.cfg.maxSize())
	}
	return nil
}

func (t *WriteTool) Execute(ctx context.Context, params map[string]any) (*tools.Result, error) {
	raw, err := tools.RequireString(params, "path")
	if err != nil {
		return nil, err
	}
	content, ok := params["content"].(string)
	if !ok {
		return nil, errors.New("missing required parameter: content")
	}

	resolved, err := confine.Confine(t.cfg.Root, raw)
	if err != nil {
		return deniedResult(raw), nil
	}
	if info, err := os.Stat(resolved); err == nil && info.IsDir() {
		return notAFileResult(raw), nil
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return tools.FailureResult(fmt.Sprintf("Failed to create parent directories: %v", err)), nil
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return tools.FailureResult(fmt.Sprintf("Failed to write file: %v", err)), nil
	}

	t.logger.Debug("write_file executing",
		slog.String("path", resolved),
		slog.Int("bytes", len(content)),
	)
	rel := confine.Rel(t.cfg.Root, resolved)
	return tools.TextResult(fmt.Sprintf("Wrote %d bytes to %s", len(content), rel)), nil
}

// ---- edit_file ----

// EditTool overwrites an existing file and reports a unified diff of the
// change. A missing file is a failure and performs no write.
type EditTool struct {
	cfg    Config
	logger *slog.Logger
}

func (t *EditTool) Name() string { return "edit_file" }
func (t *EditTool) Description() string {
	return "Replace the contents of an existing file and show a unified diff of the change"
}
func (t *EditTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]any{"type": "string", "description": "Path to the existing file, relative to the workspace root"},
			"content": map[string]any{"type": "string", "description": "New content for the file"},
		},
		"required": []string{"path", "content"},
	}
}

func (t *EditTool) Validate(params map[string]any) error {
	if _, err := tools.RequireString(params, "path"); err != nil {
		return err
	}
	content, ok := params["content"].(string)
	if !ok {
		return errors.New("missing required parameter: content")
	}
	if int64(len(content)) > t.cfg.maxSize() {
		return fmt.Errorf("content exceeds maximum size of %d bytes", t.cfg.maxSize())
	}
	return nil
}

func (t *EditTool) Execute(ctx context.Context, params map[string]any) (*tools.Result, error) {
	raw, err := tools.RequireString(params, "path")
	if err != nil {
		return nil, err
	}
	content, ok := params["content"].(string)
	if !ok {
		return nil, errors.New("missing required parameter: content")
	}

	resolved, err := confine.Confine(t.cfg.Root, raw)
	if err != nil {
		return deniedResult(raw), nil
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return notFoundResult(raw), nil
	}
	if !info.Mode().IsRegular() {
		return notAFileResult(raw), nil
	}

	oldBytes, err := os.ReadFile(resolved)
	if err != nil {
		return tools.FailureResult(fmt.Sprintf("Failed to read file: %v", err)), nil
	}

	rel := confine.Rel(t.cfg.Root, resolved)
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(oldBytes)),
		B:        difflib.SplitLines(content),
		FromFile: rel,
		ToFile:   rel,
		Context:  3,
	})
	if err != nil {
		return tools.FailureResult(fmt.Sprintf("Failed to compute diff: %v", err)), nil
	}

	// An identical replacement produces zero hunks, so the diff string is
	// empty: there are no removed/added lines to mark. The textual notice
	// stands in for the empty diff and no write happens.
	if diff == "" {
		return tools.TextResult(fmt.Sprintf("No changes to %s", rel)), nil
	}

	if err := os.WriteFile(resolved, []byte(content), info.Mode().Perm()); err != nil {
		return tools.FailureResult(fmt.Sprintf("Failed to write file: %v", err)), nil
	}

	t.logger.Debug("edit_file executing",
		slog.String("path", resolved),
		slog.Int("old_bytes", len(oldBytes)),
		slog.Int("new_bytes", len(content)),
	)
	return tools.TextResult(fmt.Sprintf("%s\nUpdated %s", strings.TrimRight(diff, "\n"), rel)), nil
}

// ---- delete_file ----

// DeleteTool removes a single regular file under the root.
type DeleteTool struct {
	cfg    Config
	logger *slog.Logger
}

func (t *DeleteTool) Name() string        { return "delete_file" }
func (t *DeleteTool) Description() string { return "Delete a file in the workspace" }
func (t *DeleteTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "Path to the file, relative to the workspace root"},
		},
		"required": []string{"path"},
	}
}

func (t *DeleteTool) Validate(params map[string]any) error {
	_, err := tools.RequireString(params, "path")
	return err
}

func (t *DeleteTool) Execute(ctx context.Context, params map[string]any) (*tools.Result, error) {
	raw, err := tools.RequireString(params, "path")
	if err != nil {
		return nil, err
	}
	resolved, err := confine.Confine(t.cfg.Root, raw)
	if err != nil {
		return deniedResult(raw), nil
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return notFoundResult(raw), nil
	}
	if !info.Mode().IsRegular() {
		return notAFileResult(raw), nil
	}

	if err := os.Remove(resolved); err != nil {
		return tools.FailureResult(fmt.Sprintf("Failed to delete file: %v", err)), nil
	}

	t.logger.Debug("delete_file executing", slog.String("path", resolved))
	return tools.TextResult(fmt.Sprintf("Deleted %s", confine.Rel(t.cfg.Root, resolved))), nil
}
