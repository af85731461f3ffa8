package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load("", root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Root != filepath.Clean(root) {
		t.Errorf("root = %q", cfg.Root)
	}
	if cfg.DefaultTimeout() != 30*time.Second {
		t.Errorf("default timeout = %s", cfg.DefaultTimeout())
	}
	if cfg.Audit.Driver != "sqlite" {
		t.Errorf("audit driver = %q", cfg.Audit.Driver)
	}
	if cfg.Papers.Category != "cs.AI" {
		t.Errorf("papers category = %q", cfg.Papers.Category)
	}
	if cfg.Metrics.Addr != "" {
		t.Errorf("metrics addr = %q, want disabled by default", cfg.Metrics.Addr)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hostbox.yaml")
	doc := `
verbose: true
default_timeout_ms: 5000
metrics:
  addr: ":9100"
audit:
  enabled: true
  driver: sqlite
  sqlite_path: /tmp/a.db
papers:
  category: cs.DC
  refresh_schedule: "@hourly"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, dir)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Verbose || cfg.DefaultTimeoutMs != 5000 {
		t.Errorf("verbose=%v timeout=%d", cfg.Verbose, cfg.DefaultTimeoutMs)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("metrics addr = %q", cfg.Metrics.Addr)
	}
	if !cfg.Audit.Enabled || cfg.Audit.SQLitePath != "/tmp/a.db" {
		t.Errorf("audit = %+v", cfg.Audit)
	}
	if cfg.Papers.Category != "cs.DC" || cfg.Papers.RefreshSchedule != "@hourly" {
		t.Errorf("papers = %+v", cfg.Papers)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hostbox.yaml")
	if err := os.WriteFile(path, []byte("papers:\n  category: cs.DC\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOSTBOX_PAPERS_CATEGORY", "cs.CR")
	t.Setenv("HOSTBOX_VERBOSE", "true")

	cfg, err := Load(path, dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Papers.Category != "cs.CR" {
		t.Errorf("category = %q, env must beat file", cfg.Papers.Category)
	}
	if !cfg.Verbose {
		t.Error("HOSTBOX_VERBOSE not applied")
	}
}

func TestRootArgBeatsEnv(t *testing.T) {
	argRoot := t.TempDir()
	envRoot := t.TempDir()
	t.Setenv("HOSTBOX_ROOT", envRoot)

	cfg, err := Load("", argRoot)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Root != filepath.Clean(argRoot) {
		t.Errorf("root = %q, want the explicit argument", cfg.Root)
	}

	cfg, err = Load("", "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Root != filepath.Clean(envRoot) {
		t.Errorf("root = %q, want HOSTBOX_ROOT", cfg.Root)
	}
}

func TestRootDefaultsToCwd(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatal(err)
	}
	cwd, _ := os.Getwd()
	if cfg.Root != filepath.Clean(cwd) {
		t.Errorf("root = %q, want cwd %q", cfg.Root, cwd)
	}
}

func TestRootMustExist(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "absent"))
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("err = %v", err)
	}
}

func TestRootMustBeDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load("", file)
	if err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}
