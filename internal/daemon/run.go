package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/winpos/internal/config"
	"github.com/1broseidon/winpos/internal/hotkeys"
	"github.com/1broseidon/winpos/internal/httpapi"
	"github.com/1broseidon/winpos/internal/ipc"
	"github.com/1broseidon/winpos/internal/logging"
	"github.com/1broseidon/winpos/internal/platform"
	"github.com/1broseidon/winpos/internal/runtimepath"
	"github.com/1broseidon/winpos/internal/window"
)

// ShutdownTimeout bounds how long Run waits for in-flight deliveries.
const ShutdownTimeout = 5 * time.Second

// RunOptions configures Run.
type RunOptions struct {
	// ConfigPath overrides ~/.config/winpos/config.yaml.
	ConfigPath string
	// SocketPath overrides the runtime IPC socket.
	SocketPath string
	// LogOutput defaults to os.Stderr.
	LogOutput io.Writer
}

type eventLooper interface {
	EventLoop()
	QuitEventLoop()
}

type disconnecter interface {
	Disconnect()
}

// Run starts the daemon and blocks until ctx is cancelled. SIGHUP reloads the
// configuration. Startup failures are returned; later failures are logged.
func Run(ctx context.Context, opts RunOptions) error {
	res, err := config.LoadPath(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := res.Config

	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger, levels, err := logging.New(out, cfg.LogLevel)
	if err != nil {
		return err
	}

	backend, err := platform.NewBackend(platform.Options{Display: cfg.Display, XAuthority: cfg.XAuthority})
	if err != nil {
		return fmt.Errorf("failed to connect to display: %w", err)
	}
	if dc, ok := any(backend).(disconnecter); ok {
		defer dc.Disconnect()
	}

	enum := window.New(backend, logger.With("component", "enumerator"))
	d, err := New(Options{
		Config:     cfg,
		ConfigPath: res.Path,
		Snapshot:   enum,
		Logger:     logger,
		LevelVar:   levels,
		Load:       func() (*config.LoadResult, error) { return config.LoadFromPath(res.Path) },
	})
	if err != nil {
		return err
	}

	socket := opts.SocketPath
	if socket == "" {
		if socket, err = runtimepath.SocketPath(); err != nil {
			return err
		}
	}
	ipcServer := ipc.NewServer(socket, d, logger.With("component", "ipc"))
	if err := ipcServer.Start(); err != nil {
		return err
	}
	defer ipcServer.Stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpDone := make(chan error, 1)
	if cfg.HTTPListen != "" {
		httpServer, err := httpapi.NewServer(httpapi.Config{
			Address:  cfg.HTTPListen,
			Snapshot: enum,
			Status:   d.SubmissionStatus,
			Logger:   logger.With("component", "http"),
		})
		if err != nil {
			return err
		}
		if err := httpServer.Listen(); err != nil {
			return err
		}
		go func() { httpDone <- httpServer.Serve(runCtx) }()
	} else {
		close(httpDone)
	}

	if el, ok := any(backend).(eventLooper); ok {
		if cfg.ToggleHotkey != "" {
			registerHotkey(backend, d, cfg.ToggleHotkey, logger)
		}
		go el.EventLoop()
		defer el.QuitEventLoop()
	} else if cfg.ToggleHotkey != "" {
		logger.Warn("toggle_hotkey is not supported on this platform", "keys", cfg.ToggleHotkey)
	}

	go d.Tracker().Run(runCtx)

	if cfg.SubmissionOnStart {
		if _, err := d.EnableSubmission(0, ""); err != nil {
			logger.Warn("submission_on_start failed", "error", err)
		}
	}

	logger.Info("winpos daemon started", "config", res.Path, "socket", socket, "http_listen", cfg.HTTPListen)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-httpDone:
			if err != nil {
				logger.Error("http server failed", "error", err)
			}
			httpDone = nil
		case <-hup:
			logger.Info("received SIGHUP, reloading config")
			if err := d.Reload(); err != nil {
				logger.Error("config reload failed", "error", err)
			}
		}
	}

	logger.Info("shutting down winpos daemon")
	cancel()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer closeCancel()
	if err := d.Close(closeCtx); err != nil {
		logger.Warn("submission shutdown", "error", err)
	}
	if httpDone != nil {
		if err := <-httpDone; err != nil {
			logger.Warn("http server shutdown", "error", err)
		}
	}
	return nil
}

func registerHotkey(backend any, d *Daemon, keys string, logger *slog.Logger) {
	h, err := hotkeys.NewHandler(backend, d, logger.With("component", "hotkeys"))
	if err != nil {
		logger.Warn("toggle hotkey unavailable", "error", err)
		return
	}
	if err := h.RegisterToggle(keys); err != nil {
		logger.Warn("failed to register toggle hotkey", "error", err)
	}
}
