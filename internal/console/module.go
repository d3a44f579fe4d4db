package console

import (
	"context"

	"github.com/matheus3301/botdesk/internal/backend"
	"github.com/matheus3301/botdesk/internal/bus"
	"github.com/matheus3301/botdesk/internal/config"
	"github.com/matheus3301/botdesk/internal/lock"
	"github.com/matheus3301/botdesk/internal/logging"
	"github.com/matheus3301/botdesk/internal/media"
	"github.com/matheus3301/botdesk/internal/notify"
	"github.com/matheus3301/botdesk/internal/profile"
	"github.com/matheus3301/botdesk/internal/push"
	"github.com/matheus3301/botdesk/internal/status"
	"github.com/matheus3301/botdesk/internal/store"
	"github.com/matheus3301/botdesk/internal/tui"
	"github.com/matheus3301/botdesk/internal/tui/ui"
	"github.com/matheus3301/botdesk/internal/tui/views"
	"github.com/matheus3301/botdesk/internal/voice"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	Profile string
	Config  config.Profile
	Debug   bool
	// Dialer overrides the push transport; nil uses WebSocket.
	Dialer push.Dialer
	// Headless skips the terminal UI; used by tests.
	Headless bool
}

// Module returns the fx module for the console, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	opts := []fx.Option{
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideLock,
			provideRegistry,
			provideStore,
			provideBus,
			provideStateMachine,
			provideBackend,
			providePush,
			provideRecorder,
			providePlayer,
			provideNotifier,
			provideFlash,
			provideController,
		),
		fx.Invoke(registerLifecycle),
	}
	if !p.Headless {
		opts = append(opts,
			fx.Provide(provideApp),
			fx.Invoke(registerUI),
		)
	}
	return fx.Module("console", opts...)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.Profile), p.Profile, p.Debug)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(profile.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

// provideRegistry depends on the lock: the media cache is only purged by the
// instance that owns the profile.
func provideRegistry(p Params, _ *lock.Lock, logger *zap.Logger) (*media.Registry, error) {
	reg := media.NewRegistry(profile.MediaDir(p.Profile), logger)
	if err := reg.Purge(); err != nil {
		return nil, err
	}
	return reg, nil
}

func provideStore(reg *media.Registry, logger *zap.Logger) *store.Store {
	return store.New(logger, reg)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(StatusPublisher(b))
}

func provideBackend(p Params, reg *media.Registry, logger *zap.Logger) *backend.Client {
	e := p.Config.Endpoints
	return backend.New(backend.Options{
		BaseURL:   p.Config.BaseURL,
		Endpoints: backend.Endpoints{List: e.List, Info: e.Info, Send: e.Send},
		Timeout:   p.Config.RequestTimeout,
	}, reg, logger)
}

func providePush(p Params, b *bus.Bus, m *status.Machine, logger *zap.Logger) *push.Client {
	return push.NewClient(push.Options{
		BaseURL:        p.Config.BaseURL,
		ReconnectDelay: p.Config.ReconnectDelay,
		MaxAttempts:    p.Config.ReconnectAttempts,
	}, p.Dialer, PushHandlers(b), m, logger)
}

func provideRecorder(p Params, logger *zap.Logger) *voice.Recorder {
	return voice.NewRecorder(voice.RecorderOptions{
		Command: p.Config.RecorderCommand,
		Limit:   p.Config.RecordLimit,
		Dir:     profile.MediaDir(p.Profile),
	}, logger)
}

func providePlayer(p Params, logger *zap.Logger) *voice.Player {
	return voice.NewPlayer(p.Config.PlayerCommand, logger)
}

func provideNotifier(p Params, logger *zap.Logger) *notify.Notifier {
	return notify.New(p.Config.NotifyEnabled(), logger)
}

func provideFlash(p Params) *ui.FlashModel {
	return ui.NewFlashModel(p.Config.FlashDuration)
}

func provideController(
	p Params,
	st *store.Store,
	be *backend.Client,
	reg *media.Registry,
	rec *voice.Recorder,
	player *voice.Player,
	n *notify.Notifier,
	flash *ui.FlashModel,
	logger *zap.Logger,
) *Controller {
	return New(st, be, be.Mapper(), rec, player, n, flash, Options{
		QuickReplies:  p.Config.QuickReplies,
		TypingTimeout: p.Config.TypingTimeout,
		Releaser:      reg,
	}, logger)
}

func provideApp(p Params, st *store.Store, c *Controller, flash *ui.FlashModel, rec *voice.Recorder, logger *zap.Logger) *tui.App {
	return tui.NewApp(tui.Options{
		Profile:      p.Profile,
		BaseURL:      p.Config.BaseURL,
		QuickReplies: c.QuickReplies(),
		Thread: views.ThreadOptions{
			VirtualizeAbove: p.Config.VirtualizeAbove,
			Overscan:        p.Config.Overscan,
			RevealMin:       p.Config.RevealMin,
			RevealMax:       p.Config.RevealMax,
			RevealStep:      p.Config.RevealStep,
		},
	}, st, c, flash, rec, logger)
}

func registerLifecycle(
	lc fx.Lifecycle,
	lk *lock.Lock,
	reg *media.Registry,
	b *bus.Bus,
	pc *push.Client,
	rec *voice.Recorder,
	c *Controller,
	logger *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Live events are consumed before the channel opens so none are
			// dropped between connect and the first fetch.
			c.Listen(context.Background(), b)
			pc.Start(context.Background())
			c.Load()
			logger.Info("console started")
			return nil
		},
		OnStop: func(_ context.Context) error {
			pc.Close()
			c.Close()
			rec.Close()
			reg.ReleaseAll()
			if dropped := b.Dropped(); dropped > 0 {
				logger.Warn("live events dropped", zap.Int64("count", dropped))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("console stopped")
			_ = logger.Sync()
			return nil
		},
	})
}

// registerUI runs the terminal UI once the app has started and shuts the app
// down when the operator quits.
func registerUI(lc fx.Lifecycle, app *tui.App, sd fx.Shutdowner, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := app.Run(); err != nil {
					logger.Error("terminal UI error", zap.Error(err))
					_ = sd.Shutdown(fx.ExitCode(1))
					return
				}
				_ = sd.Shutdown()
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			app.Stop()
			return nil
		},
	})
}
