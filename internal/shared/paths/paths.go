package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// BackendName is the backend executable's base name.
const BackendName = "terminal"

// ExecutableName returns the backend binary name for the given GOOS.
func ExecutableName(goos string) string {
	if goos == "windows" {
		return BackendName + ".exe"
	}
	return BackendName
}

// ResolveRoot returns the absolute installation root. An empty root means the
// current working directory.
func ResolveRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve backend root %q: %w", root, err)
	}
	return abs, nil
}

// ResolveExecutable returns the backend path. An empty bin selects the
// platform default; a relative bin is taken relative to root.
func ResolveExecutable(root, bin string) string {
	if bin == "" {
		bin = ExecutableName(runtime.GOOS)
	}
	if filepath.IsAbs(bin) {
		return filepath.Clean(bin)
	}
	return filepath.Join(root, bin)
}

// CheckExecutable reports whether path names a regular file. A missing binary
// still surfaces as a spawn failure; this only lets startup warn early.
func CheckExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("backend path %q is a directory", path)
	}
	return nil
}
