package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/soar/touchremote/backend/internal/axis"
	"github.com/soar/touchremote/backend/internal/config"
	"github.com/soar/touchremote/backend/internal/gamepad"
	"github.com/soar/touchremote/backend/internal/host"
	"github.com/soar/touchremote/backend/internal/hub"
	"github.com/soar/touchremote/backend/internal/layout"
	"github.com/soar/touchremote/backend/internal/locale"
	"github.com/soar/touchremote/backend/internal/logging"
	"github.com/soar/touchremote/backend/internal/panel"
	"github.com/soar/touchremote/backend/internal/server"
	"github.com/soar/touchremote/backend/internal/surface"
	"github.com/soar/touchremote/backend/internal/tray"
)

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

const configTimeout = 5 * time.Second

// backend is the layout persistence every component shares: the layout file
// or a remote layout API.
type backend interface {
	server.Layouts
	SaveLayout(ctx context.Context, controls []surface.Control) error
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "touchremote:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, JSON: cfg.LogJSON})
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)

	defaults := cfg.Defaults()

	var (
		layouts    backend
		loadConfig func(context.Context) (layout.Config, error)
		fileStore  *layout.FileStore
	)
	if cfg.API != "" {
		client := layout.NewClient(cfg.API, logger.With("component", "layout"))
		layouts = client
		loadConfig = func(ctx context.Context) (layout.Config, error) {
			c, warnings, err := client.Config(ctx)
			for _, w := range warnings {
				logger.Warn("config field defaulted", "error", w)
			}
			return c, err
		}
		logger.Info("using remote layout API", "url", cfg.API)
	} else {
		fileStore, err = layout.NewFileStore(cfg.Layout, logger.With("component", "layout"))
		if err != nil {
			return err
		}
		layouts = fileStore
		loadConfig = func(ctx context.Context) (layout.Config, error) {
			doc, err := fileStore.Document(ctx)
			return doc.Complete(defaults), err
		}
		logger.Info("using layout file", "path", fileStore.Path())
	}

	bundle, err := locale.NewBundle(logger)
	if err != nil {
		return fmt.Errorf("locale: %w", err)
	}

	var pad *gamepad.Pad
	var padChanges <-chan gamepad.PadState
	if cfg.Mode == layout.ModeDriving {
		customAxes := 0
		if cfg.Joystick.Type == axis.JoystickCustom {
			customAxes = cfg.Joystick.Axes
		}
		pad = gamepad.NewPad(cfg.Joystick.Type, cfg.Joystick.Name, customAxes, logger.With("component", "pad"))
		defer pad.Close()
		padChanges = pad.Changes()
	}

	h := hub.NewHub(logger.With("component", "hub"))
	go h.Run(ctx)

	broadcaster := hub.NewBroadcaster(h, padChanges, logger)
	go broadcaster.Run(ctx)

	hst := host.New(layouts, host.Options{
		Mode:     cfg.Mode,
		Defaults: defaults,
		Overlay:  host.NewStatusOverlay(broadcaster.PublishOverlay, logger),
		Keys:     host.LogInjector{Logger: logger.With("component", "keys")},
		Pad:      pad,
		Logger:   logger.With("component", "host"),
	})
	if fileStore != nil {
		fileStore.OnChange = hst.Invalidate
	}

	newPanel := func(c *hub.Client) hub.Session {
		lctx, lcancel := context.WithTimeout(ctx, configTimeout)
		defer lcancel()
		lc, err := loadConfig(lctx)
		if err != nil {
			logger.Warn("layout unavailable, starting empty", "client", c.ID(), "error", err)
			lc = layout.Document{}.Complete(defaults)
		}
		p := panel.New(c.ID(), c, panel.Options{
			Config:       lc,
			Persist:      layouts,
			Host:         hst,
			Translator:   bundle.Localizer(c.Lang()),
			FrameRate:    cfg.FrameRate,
			LegacyCompat: cfg.LegacyCompat,
			Logger:       logger,
		})
		p.Start()
		return p
	}
	socket := hub.NewHandler(h, newPanel, logger.With("component", "ws"))
	if pad != nil {
		socket.OnConnected(broadcaster.SendInitialState)
	}

	var frontendFS fs.FS = getFrontendFS()
	if cfg.Debug {
		frontendFS = os.DirFS("frontend")
	}
	srv, err := server.New(server.Options{
		Addr:     cfg.Addr,
		Layouts:  layouts,
		Defaults: defaults,
		Socket:   socket,
		Frontend: frontendFS,
		Minify:   cfg.Minify && !cfg.Debug,
		Logger:   logger.With("component", "http"),
	})
	if err != nil {
		return err
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	logger.Info("TouchRemote started", "url", cfg.URL(), "mode", cfg.Mode)

	shutdownRequested := make(chan struct{})
	var t *tray.Tray
	if cfg.Tray && tray.Supported() {
		t = tray.New(tray.Options{
			URL:    cfg.URL(),
			OnExit: func() { close(shutdownRequested) },
			Logger: logger,
		})
		go t.Run()
	} else {
		logger.Info("press Ctrl+C to exit")
	}

	select {
	case <-sigCh:
		logger.Info("shutting down")
	case <-shutdownRequested:
		logger.Info("shutdown requested from tray")
	case err := <-serverErrCh:
		logger.Error("HTTP server error", "error", err)
	}
	cancel()
	if t != nil {
		t.Quit()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("TouchRemote stopped")
	return nil
}
