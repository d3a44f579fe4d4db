package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matheus3301/botdesk/internal/config"
	"github.com/matheus3301/botdesk/internal/console"
	"github.com/matheus3301/botdesk/internal/profile"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var version = "dev"

type flags struct {
	profile    string
	configPath string
	baseURL    string
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "botdesk",
		Short: "Operator console for supervising chat-bot conversations",
		Long: `botdesk is a terminal console for watching the conversations an assistant
bot holds with customers, taking over with typed or voice replies, and handing
control back.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(f)
		},
	}
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "profile name (overrides config default)")
	cmd.Flags().StringVar(&f.configPath, "config", "", "config file (default ~/.botdesk/config.toml)")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "backend base URL (overrides profile)")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "enable debug logging")
	return cmd
}

func run(f flags) error {
	if err := config.LoadDotEnv(profile.EnvPath(), ".env"); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	path := f.configPath
	if path == "" {
		path = profile.ConfigPath()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	name := profile.Resolve(f.profile, cfg)
	if err := profile.ValidateName(name); err != nil {
		return err
	}

	p := config.ApplyEnv(cfg.Profile(name))
	if u := strings.TrimSpace(f.baseURL); u != "" {
		p.BaseURL = u
	}

	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			// The terminal belongs to the UI; lifecycle events go to the log file.
			return &fxevent.ZapLogger{Logger: logger}
		}),
		console.Module(console.Params{
			Profile: name,
			Config:  p,
			Debug:   f.debug,
		}),
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	sig := <-app.Wait()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		return err
	}
	if sig.ExitCode != 0 {
		return fmt.Errorf("console exited with code %d", sig.ExitCode)
	}
	return nil
}
