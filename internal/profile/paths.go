package profile

import (
	"os"
	"path/filepath"
)

// EnvHome overrides the ~/.botdesk base directory.
const EnvHome = "BOTDESK_HOME"

// BaseDir returns ~/.botdesk, or $BOTDESK_HOME when set.
func BaseDir() string {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".botdesk")
}

// Dir returns the profile-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "profiles", name)
}

// LogDir returns the log directory for a profile.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the console log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "botdesk.log")
}

// MediaDir holds decoded audio handles while the console runs.
func MediaDir(name string) string {
	return filepath.Join(Dir(name), "media")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnvPath returns the global .env overlay path.
func EnvPath() string {
	return filepath.Join(BaseDir(), ".env")
}

// EnsureDir creates the profile directory tree with proper permissions.
func EnsureDir(name string) error {
	for _, d := range []string{Dir(name), LogDir(name), MediaDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
