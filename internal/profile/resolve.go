package profile

import (
	"os"

	"github.com/matheus3301/botdesk/internal/config"
)

const DefaultName = "main"

// Resolve determines the active profile name using precedence:
// 1. flagOverride (--profile flag)
// 2. BOTDESK_PROFILE
// 3. config.toml default_profile
// 4. "main"
func Resolve(flagOverride string, cfg *config.Config) string {
	if flagOverride != "" {
		return flagOverride
	}
	if env := os.Getenv(config.EnvProfile); env != "" {
		return env
	}
	if cfg != nil && cfg.DefaultProfile != "" {
		return cfg.DefaultProfile
	}
	return DefaultName
}
