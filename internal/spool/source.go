package spool

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"scanbay/internal/logging"
	"scanbay/internal/recognize"
)

// FrameSink receives frames pulled from the spool directory. It reports
// whether the frame was admitted; declined frames are deleted by the source.
type FrameSink interface {
	OnFrame(frame recognize.Frame) bool
}

var frameExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".pgm":  {},
	".bmp":  {},
}

// Source watches the spool directory and forwards frame files to a sink.
type Source struct {
	dir    string
	sink   FrameSink
	logger *slog.Logger
	sweep  time.Duration

	// admitted holds paths the sink has accepted but not yet consumed.
	// They must be neither re-offered nor deleted while the recognition
	// attempt reads them. Only the run goroutine touches this map.
	admitted map[string]struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	paused atomic.Bool
}

// New constructs a spool source over dir. sweepInterval bounds how stale a
// frame can get when a filesystem event is missed; zero selects a default.
func New(dir string, sink FrameSink, logger *slog.Logger, sweepInterval time.Duration) *Source {
	if sweepInterval <= 0 {
		sweepInterval = 250 * time.Millisecond
	}
	return &Source{
		dir:      dir,
		sink:     sink,
		logger:   logging.NewComponentLogger(logger, "spool"),
		sweep:    sweepInterval,
		admitted: make(map[string]struct{}),
	}
}

// Start begins watching the spool directory. Frames already present are
// processed before any watcher events.
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("spool source already running")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer watcher.Close()
		s.run(runCtx, watcher)
	}()
	return nil
}

// Stop halts watching. Frames already handed to the sink are unaffected.
func (s *Source) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// Pause stops forwarding frames to the sink. Spooled frames accumulate on
// disk until Resume; the next sweep picks them up oldest first.
func (s *Source) Pause() {
	s.paused.Store(true)
}

// Resume re-enables frame forwarding after Pause.
func (s *Source) Resume() {
	s.paused.Store(false)
}

func (s *Source) run(ctx context.Context, watcher *fsnotify.Watcher) {
	s.sweepDir()

	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// Offer on Write, not Create: the capture glue opens the file
			// before its content lands, and a frame must not be handed off
			// half-written. Files moved in without a Write event are caught
			// by the sweep.
			if event.Op.Has(fsnotify.Write) {
				s.offer(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("spool watcher error; relying on sweep",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check spool directory permissions"),
			)
		case <-ticker.C:
			s.sweepDir()
		}
	}
}

// sweepDir picks up frames whose events were missed, oldest first. It also
// forgets admitted paths whose files the sink has consumed.
func (s *Source) sweepDir() {
	for path := range s.admitted {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			delete(s.admitted, path)
		}
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("spool sweep failed", logging.Error(err))
		return
	}

	type pending struct {
		path    string
		modTime time.Time
	}
	var frames []pending
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if !isFrameFile(path) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		frames = append(frames, pending{path: path, modTime: info.ModTime()})
	}
	sort.Slice(frames, func(i, j int) bool {
		return frames[i].modTime.Before(frames[j].modTime)
	})
	for _, frame := range frames {
		s.offer(frame.path)
	}
}

func (s *Source) offer(path string) {
	if s.paused.Load() {
		return
	}
	if !isFrameFile(path) {
		return
	}
	if _, inFlight := s.admitted[path]; inFlight {
		// The sink is still reading this file; it deletes it when done.
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	frame := recognize.Frame{Path: path, CapturedAt: info.ModTime()}
	if s.sink.OnFrame(frame) {
		s.admitted[path] = struct{}{}
		return
	}
	// Declined while an attempt was in flight. A fresh frame will follow, so
	// this one is discarded rather than retried.
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to discard dropped frame",
			logging.Error(err),
			logging.String("path", path),
		)
	}
}

func isFrameFile(path string) bool {
	_, ok := frameExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
