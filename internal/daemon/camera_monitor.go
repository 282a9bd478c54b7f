package daemon

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"scanbay/internal/config"
	"scanbay/internal/logging"
)

// cameraMonitor listens for udev netlink events so the daemon knows when the
// station camera is unplugged or reattached. On detach the onChange callback
// pauses frame intake; on reattach it resumes.
type cameraMonitor struct {
	logger   *slog.Logger
	device   string
	onChange func(attached bool)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
	present bool
}

func newCameraMonitor(cfg *config.Config, logger *slog.Logger, onChange func(attached bool)) *cameraMonitor {
	device := ""
	if cfg != nil {
		device = strings.TrimSpace(cfg.Camera.VideoDevice)
	}
	return &cameraMonitor{
		logger:   logging.NewComponentLogger(logger, "camera-monitor"),
		device:   device,
		onChange: onChange,
		// Assume present until an unplug event says otherwise; the capture
		// side surfaces its own errors when the device is truly gone.
		present: true,
	}
}

// Start begins listening for udev events. A missing netlink socket is
// non-fatal: attach tracking is disabled and presence stays optimistic.
func (m *cameraMonitor) Start(ctx context.Context) error {
	if m == nil || m.device == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; camera attach tracking disabled",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
			logging.String(logging.FieldImpact, "camera unplug will not be reported"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("camera monitor started",
		logging.String(logging.FieldEventType, "camera_monitor_started"),
		logging.String("device", m.device),
	)
	return nil
}

// Stop shuts down the camera monitor.
func (m *cameraMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false
}

// Present reports whether the camera is believed attached.
func (m *cameraMonitor) Present() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.present
}

func (m *cameraMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	events := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(events, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-events:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("camera monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "camera_monitor_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
			)
		}
	}
}

// buildMatcher matches video4linux add/remove events.
func (m *cameraMonitor) buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
		},
	})
	return rules
}

func (m *cameraMonitor) handleEvent(uevent netlink.UEvent) {
	devname := uevent.Env["DEVNAME"]
	if devname == "" || devname != m.device {
		return
	}

	attached := uevent.Action == netlink.ADD
	m.mu.Lock()
	changed := m.present != attached
	m.present = attached
	m.mu.Unlock()
	if !changed {
		return
	}
	if m.onChange != nil {
		m.onChange(attached)
	}

	if attached {
		m.logger.Info("camera attached",
			logging.String("device", devname),
			logging.String(logging.FieldEventType, "camera_attached"),
		)
		return
	}
	m.logger.Warn("camera detached; frames will stop arriving",
		logging.String("device", devname),
		logging.String(logging.FieldEventType, "camera_detached"),
		logging.String(logging.FieldErrorHint, "reconnect the station camera"),
	)
}
