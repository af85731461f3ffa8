package sandbox

import (
	"os"
	"path/filepath"
	"strings"
)

// systemPathDirs are always present in a repaired PATH.
var systemPathDirs = []string{
	"/usr/local/bin",
	"/usr/bin",
	"/bin",
	"/usr/sbin",
	"/sbin",
}

// userPathDirs are home-relative directories where user-level tooling
// installs binaries.
var userPathDirs = []string{
	".local/bin",
	"bin",
	"go/bin",
	".cargo/bin",
	".bun/bin",
	".deno/bin",
}

// AssembleEnv builds the environment for spawned processes. The caller's
// environment is copied unchanged; if and only if PATH is absent, one is
// synthesized from the fixed system directories followed by the
// home-relative tool directories. Nothing else is added or stripped.
func AssembleEnv(environ []string, home string) []string {
	out := make([]string, len(environ))
	copy(out, environ)

	for _, kv := range environ {
		if strings.HasPrefix(kv, "PATH=") {
			return out
		}
	}
	return append(out, "PATH="+fallbackPath(home))
}

// ProcessEnv is the production entry point: the current process
// environment plus the PATH repair.
func ProcessEnv() []string {
	home, _ := os.UserHomeDir()
	return AssembleEnv(os.Environ(), home)
}

// Lookup reads one variable from an assembled environment. The last
// occurrence wins, matching what execve hands the child.
func Lookup(env []string, name string) (string, bool) {
	prefix := name + "="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], prefix) {
			return env[i][len(prefix):], true
		}
	}
	return "", false
}

func fallbackPath(home string) string {
	dirs := make([]string, 0, len(systemPathDirs)+len(userPathDirs))
	dirs = append(dirs, systemPathDirs...)
	if home != "" {
		for _, d := range userPathDirs {
			dirs = append(dirs, filepath.Join(home, d))
		}
	}
	return strings.Join(dirs, string(os.PathListSeparator))
}
