package file

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hostbox/internal/tools"
)

func newTestRegistry(t *testing.T) (*tools.Registry, string) {
	t.Helper()
	root := t.TempDir()
	// TempDir may sit behind a symlink on some platforms; the guard is
	// lexical, so tests use the cleaned path directly.
	root = filepath.Clean(root)
	reg := tools.NewRegistry()
	Register(reg, Config{Root: root}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return reg, root
}

func call(t *testing.T, reg *tools.Registry, name string, params map[string]any) *tools.Result {
	t.Helper()
	tool := reg.Get(name)
	if tool == nil {
		t.Fatalf("tool %s not registered", name)
	}
	if err := tool.Validate(params); err != nil {
		t.Fatalf("%s validation: %v", name, err)
	}
	res, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("%s execute: %v", name, err)
	}
	return res
}

func TestWriteReadRoundTrip(t *testing.T) {
	reg, _ := newTestRegistry(t)
	content := "line one\nline two\n"

	res := call(t, reg, "write_file", map[string]any{"path": "sub/dir/note.txt", "content": content})
	if !res.Success {
		t.Fatalf("write failed: %s", res.Output)
	}
	if !strings.Contains(res.Output, "sub/dir/note.txt") {
		t.Errorf("write output = %q", res.Output)
	}

	res = call(t, reg, "read_file", map[string]any{"path": "sub/dir/note.txt"})
	if !res.Success {
		t.Fatalf("read failed: %s", res.Output)
	}
	if res.Output != content {
		t.Errorf("read = %q, want %q", res.Output, content)
	}
}

func TestReadMissingFile(t *testing.T) {
	reg, _ := newTestRegistry(t)
	res := call(t, reg, "read_file", map[string]any{"path": "absent.txt"})
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Output, "File not found") {
		t.Errorf("output = %q", res.Output)
	}
}

func TestReadDirectory(t *testing.T) {
	reg, root := newTestRegistry(t)
	if err := os.Mkdir(filepath.Join(root, "d"), 0o755); err != nil {
		t.Fatal(err)
	}
	res := call(t, reg, "read_file", map[string]any{"path": "d"})
	if res.Success || !strings.Contains(res.Output, "Not a file") {
		t.Errorf("output = %q", res.Output)
	}
}

func TestConfinementRejection(t *testing.T) {
	reg, root := newTestRegistry(t)
	for _, name := range []string{"read_file", "write_file", "edit_file", "delete_file"} {
		params := map[string]any{"path": "../escape.txt"}
		if name == "write_file" || name == "edit_file" {
			params["content"] = "x"
		}
		res := call(t, reg, name, params)
		if res.Success {
			t.Errorf("%s accepted an escaping path", name)
		}
		if !strings.Contains(res.Output, "Access denied") {
			t.Errorf("%s output = %q", name, res.Output)
		}
	}
	// No mutation may have occurred outside the root.
	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "escape.txt")); err == nil {
		t.Fatal("file was written outside the root")
	}
}

func TestDeleteIdempotentMessages(t *testing.T) {
	reg, _ := newTestRegistry(t)
	call(t, reg, "write_file", map[string]any{"path": "gone.txt", "content": "x"})

	res := call(t, reg, "delete_file", map[string]any{"path": "gone.txt"})
	if !res.Success || !strings.Contains(res.Output, "Deleted gone.txt") {
		t.Fatalf("first delete output = %q", res.Output)
	}

	// Repeated deletes report not-found, never a fault.
	for i := 0; i < 2; i++ {
		res = call(t, reg, "delete_file", map[string]any{"path": "gone.txt"})
		if res.Success || !strings.Contains(res.Output, "File not found") {
			t.Errorf("repeat delete output = %q", res.Output)
		}
	}
}

func TestDeleteDirectoryRejected(t *testing.T) {
	reg, root := newTestRegistry(t)
	if err := os.Mkdir(filepath.Join(root, "keep"), 0o755); err != nil {
		t.Fatal(err)
	}
	res := call(t, reg, "delete_file", map[string]any{"path": "keep"})
	if res.Success || !strings.Contains(res.Output, "Not a file") {
		t.Errorf("output = %q", res.Output)
	}
	if _, err := os.Stat(filepath.Join(root, "keep")); err != nil {
		t.Error("directory was removed")
	}
}

func TestEditMissingFilePerformsNoWrite(t *testing.T) {
	reg, root := newTestRegistry(t)
	res := call(t, reg, "edit_file", map[string]any{"path": "nope.txt", "content": "new"})
	if res.Success || !strings.Contains(res.Output, "File not found") {
		t.Fatalf("output = %q", res.Output)
	}
	if _, err := os.Stat(filepath.Join(root, "nope.txt")); err == nil {
		t.Fatal("edit_file created the file")
	}
}

func TestEditProducesUnifiedDiff(t *testing.T) {
	reg, root := newTestRegistry(t)
	old := "alpha\nbeta\ngamma\n"
	call(t, reg, "write_file", map[string]any{"path": "doc.txt", "content": old})

	res := call(t, reg, "edit_file", map[string]any{"path": "doc.txt", "content": "alpha\nBETA\ngamma\n"})
	if !res.Success {
		t.Fatalf("edit failed: %s", res.Output)
	}
	if !strings.Contains(res.Output, "-beta") {
		t.Errorf("diff lacks removed line marker: %q", res.Output)
	}
	if !strings.Contains(res.Output, "+BETA") {
		t.Errorf("diff lacks added line marker: %q", res.Output)
	}
	if !strings.Contains(res.Output, "Updated doc.txt") {
		t.Errorf("missing success message: %q", res.Output)
	}

	got, err := os.ReadFile(filepath.Join(root, "doc.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "alpha\nBETA\ngamma\n" {
		t.Errorf("file content = %q", got)
	}
}

func TestEditNoChanges(t *testing.T) {
	reg, _ := newTestRegistry(t)
	call(t, reg, "write_file", map[string]any{"path": "same.txt", "content": "stable\n"})
	res := call(t, reg, "edit_file", map[string]any{"path": "same.txt", "content": "stable\n"})
	if !res.Success || !strings.Contains(res.Output, "No changes") {
		t.Errorf("output = %q", res.Output)
	}
}

func TestListFilesGlob(t *testing.T) {
	reg, _ := newTestRegistry(t)
	call(t, reg, "write_file", map[string]any{"path": "a.txt", "content": "a"})
	call(t, reg, "write_file", map[string]any{"path": "b/c.txt", "content": "c"})
	call(t, reg, "write_file", map[string]any{"path": "d.md", "content": "d"})

	res := call(t, reg, "list_files", map[string]any{"pattern": "*.txt"})
	if !res.Success {
		t.Fatalf("list failed: %s", res.Output)
	}
	lines := strings.Split(strings.TrimSpace(res.Output), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %v, want exactly the two .txt paths", lines)
	}
	joined := res.Output
	if !strings.Contains(joined, "a.txt") || !strings.Contains(joined, "b/c.txt") {
		t.Errorf("output = %q", joined)
	}
	if strings.Contains(joined, "d.md") {
		t.Errorf("output %q includes non-matching file", joined)
	}
}

func TestListFilesDoublestar(t *testing.T) {
	reg, _ := newTestRegistry(t)
	call(t, reg, "write_file", map[string]any{"path": "x/y/z.go", "content": "z"})
	call(t, reg, "write_file", map[string]any{"path": "x/y.go", "content": "y"})

	res := call(t, reg, "list_files", map[string]any{"pattern": "x/**/*.go"})
	if !res.Success {
		t.Fatalf("list failed: %s", res.Output)
	}
	if !strings.Contains(res.Output, "x/y/z.go") {
		t.Errorf("output = %q", res.Output)
	}
}

func TestListFilesNoMatch(t *testing.T) {
	reg, _ := newTestRegistry(t)
	res := call(t, reg, "list_files", map[string]any{"pattern": "*.nope"})
	if res.Success || !strings.Contains(res.Output, "No files matching pattern '*.nope'") {
		t.Errorf("output = %q", res.Output)
	}
}

func TestListFilesSubdirectoryStillRootRelative(t *testing.T) {
	reg, _ := newTestRegistry(t)
	call(t, reg, "write_file", map[string]any{"path": "sub/inner.txt", "content": "i"})

	res := call(t, reg, "list_files", map[string]any{"pattern": "*.txt", "directory": "sub"})
	if !res.Success {
		t.Fatalf("list failed: %s", res.Output)
	}
	// Paths stay relative to the root, not to the listed directory.
	if strings.TrimSpace(res.Output) != "sub/inner.txt" {
		t.Errorf("output = %q, want sub/inner.txt", res.Output)
	}
}

func TestListFilesInvalidPattern(t *testing.T) {
	reg, _ := newTestRegistry(t)
	tool := reg.Get("list_files")
	if err := tool.Validate(map[string]any{"pattern": "[broken"}); err == nil {
		t.Error("invalid pattern passed validation")
	}
}

func TestWriteOverwrites(t *testing.T) {
	reg, _ := newTestRegistry(t)
	call(t, reg, "write_file", map[string]any{"path": "w.txt", "content": "first"})
	call(t, reg, "write_file", map[string]any{"path": "w.txt", "content": "second"})
	res := call(t, reg, "read_file", map[string]any{"path": "w.txt"})
	if res.Output != "second" {
		t.Errorf("read = %q, want overwrite", res.Output)
	}
}
