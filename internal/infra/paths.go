package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const AppName = "quickbite"

// Environment overrides for the locations below.
const (
	EnvWorkspace = "QB_WORKSPACE"
	EnvConfig    = "QB_CONFIG"
)

// WorkspaceDir is where the local stores keep their files. QB_WORKSPACE
// wins, then a ./_workspace directory, then the per-user data directory.
func WorkspaceDir() string {
	if dir := os.Getenv(EnvWorkspace); dir != "" {
		return dir
	}
	if _, err := os.Stat("_workspace"); err == nil {
		return "_workspace"
	}
	if dir := userDataDir(); dir != "" {
		return filepath.Join(dir, AppName)
	}
	return "_workspace"
}

// userDataDir is the per-user application data root, or "" when the
// platform has none we know of.
func userDataDir() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("APPDATA"); dir != "" {
			return dir
		}
		return filepath.Join(home, "AppData", "Roaming")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support")
	case "linux":
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return dir
		}
		return filepath.Join(home, ".local", "share")
	}
	return ""
}

// StorePath is the store file for backend under workDir, used when
// storage.path is empty.
func StorePath(workDir, backend string) string {
	name := "store.db"
	if backend == BackendFile {
		name = "store.json"
	}
	return filepath.Join(workDir, "data", name)
}

// EnsureDir creates path and its parents.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// LockStore claims the store file at storePath for this process. Redis
// needs no lock; a SQLite or JSON file written by two services would
// diverge. The returned func releases the claim.
func LockStore(storePath string) (func(), error) {
	lockPath := storePath + ".lock"

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("store %s is in use by another instance (remove %s if it is not)", storePath, lockPath)
		}
		return nil, fmt.Errorf("failed to lock store: %w", err)
	}
	fmt.Fprintf(f, "%d", os.Getpid())
	f.Close()

	return func() { os.Remove(lockPath) }, nil
}

// ConfigPath picks the config file: QB_CONFIG, then configs/config.yaml,
// then config.yaml in the per-user config directory. When none exists the
// configs/ path is returned and LoadConfig runs on defaults.
func ConfigPath() string {
	if path := os.Getenv(EnvConfig); path != "" {
		return path
	}

	local := filepath.Join("configs", "config.yaml")
	if _, err := os.Stat(local); err == nil {
		return local
	}
	if dir, err := os.UserConfigDir(); err == nil {
		user := filepath.Join(dir, AppName, "config.yaml")
		if _, err := os.Stat(user); err == nil {
			return user
		}
	}
	return local
}
