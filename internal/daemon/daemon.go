package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"scanbay/internal/archive"
	"scanbay/internal/config"
	"scanbay/internal/dispatch"
	"scanbay/internal/ledger"
	"scanbay/internal/logging"
	"scanbay/internal/recognize"
	"scanbay/internal/session"
	"scanbay/internal/spool"
)

// Daemon coordinates the scan pipeline and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *archive.Store

	adapter    *recognize.Adapter
	dispatcher *dispatch.Dispatcher
	session    *session.Session
	source     *spool.Source
	camera     *cameraMonitor
	apiSrv     *apiServer

	logPath  string
	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	Session       session.Snapshot
	CameraPresent bool
	ArchiveDBPath string
	LockFilePath  string
}

// New constructs a daemon with the full pipeline wired together.
func New(cfg *config.Config, store *archive.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	mode, ok := ledger.ParseMode(cfg.Session.DefaultMode)
	if !ok {
		return nil, fmt.Errorf("invalid default scan mode %q", cfg.Session.DefaultMode)
	}

	adapter := recognize.NewAdapter(cfg, logger, recognize.ExecRunner{})
	dispatcher := dispatch.New(adapter, logger, mode)
	sess := session.New(cfg, logger, store,
		session.WithEvents(dispatcher.Events()),
		session.WithModeSink(dispatcher.SetMode),
	)
	sweep := time.Duration(cfg.Camera.PollInterval) * time.Second
	source := spool.New(cfg.Paths.SpoolDir, dispatcher, logger, sweep)

	lockPath := filepath.Join(cfg.Paths.LogDir, "scanbayd.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		adapter:    adapter,
		dispatcher: dispatcher,
		session:    sess,
		source:     source,
		logPath:    filepath.Join(cfg.Paths.LogDir, "scanbay.log"),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	d.camera = newCameraMonitor(cfg, logger, func(attached bool) {
		if attached {
			source.Resume()
			return
		}
		source.Pause()
	})

	apiSrv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.apiSrv = apiSrv
	return d, nil
}

// Start acquires the daemon lock and launches the pipeline.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another scanbay daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.startPipeline(runCtx); err != nil {
		d.cancel()
		d.cancel = nil
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info("scanbay daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldSessionID, d.session.ID()),
	)
	return nil
}

func (d *Daemon) startPipeline(ctx context.Context) error {
	if err := d.dispatcher.Start(ctx); err != nil {
		return fmt.Errorf("start dispatcher: %w", err)
	}
	if err := d.session.Start(ctx); err != nil {
		d.dispatcher.Stop()
		return fmt.Errorf("start session: %w", err)
	}
	if err := d.source.Start(ctx); err != nil {
		d.dispatcher.Stop()
		d.session.Stop()
		return fmt.Errorf("start spool source: %w", err)
	}
	if err := d.camera.Start(ctx); err != nil {
		d.source.Stop()
		d.dispatcher.Stop()
		d.session.Stop()
		return fmt.Errorf("start camera monitor: %w", err)
	}
	if d.apiSrv != nil {
		if err := d.apiSrv.start(ctx); err != nil {
			d.camera.Stop()
			d.source.Stop()
			d.dispatcher.Stop()
			d.session.Stop()
			return err
		}
	}
	return nil
}

// Stop tears the pipeline down and releases the daemon lock. The spool stops
// first so no new frames enter, then the dispatcher drains its in-flight
// attempt before the session goes away.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.apiSrv.stop()
	d.camera.Stop()
	d.source.Stop()
	d.dispatcher.Stop()
	d.session.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("scanbay daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Session returns the live scan session.
func (d *Daemon) Session() *session.Session {
	return d.session
}

// Store returns the snapshot archive.
func (d *Daemon) Store() *archive.Store {
	return d.store
}

// APIAddr returns the bound API address, or empty when the server is off.
func (d *Daemon) APIAddr() string {
	if d.apiSrv == nil {
		return ""
	}
	return d.apiSrv.addr()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(context.Context) Status {
	return Status{
		Running:       d.running.Load(),
		Session:       d.session.Snapshot(),
		CameraPresent: d.camera.Present(),
		ArchiveDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
	}
}

// PID returns the daemon process id.
func (d *Daemon) PID() int {
	return os.Getpid()
}
