package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"scanbay/internal/config"
)

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
	PID      int
}

// Launch starts a detached scanbayd process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return errors.New("resolve executable: executable path is empty")
	}

	var args []string
	if cfgPath := strings.TrimSpace(opts.ConfigPath); cfgPath != "" {
		args = append(args, "--config", cfgPath)
	}

	proc := exec.Command(executablePath, args...)
	proc.Stdout = nil
	proc.Stderr = nil
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForDaemon polls the API until the daemon reports running or the
// timeout passes.
func WaitForDaemon(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	client := NewClient(addr)
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		status, err := client.Status(ctx)
		if err == nil && status.Running {
			return client, nil
		}
		if err != nil {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon if its API is unreachable and waits for
// it to come up.
func EnsureStarted(ctx context.Context, addr, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	client := NewClient(addr)
	if status, err := client.Status(ctx); err == nil && status.Running {
		return StartResult{State: StartStateAlreadyRunning, PID: status.PID}, nil
	}

	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	started, err := WaitForDaemon(ctx, addr, waitTimeout)
	if err != nil {
		return StartResult{}, err
	}
	status, err := started.Status(ctx)
	if err != nil {
		return StartResult{State: StartStateStarted, Launched: true}, nil
	}
	return StartResult{State: StartStateStarted, Launched: true, PID: status.PID}, nil
}

// StopDaemon signals the daemon to shut down and waits for its API to go
// away. After gracePeriod it escalates from SIGTERM to SIGKILL.
func StopDaemon(ctx context.Context, addr string, cfg *config.Config, gracePeriod time.Duration) (int, error) {
	client := NewClient(addr)
	status, err := client.Status(ctx)
	if err != nil {
		if errors.Is(err, ErrDaemonNotRunning) {
			return 0, ErrDaemonNotRunning
		}
		return 0, err
	}

	pid := status.PID
	if pid <= 0 {
		pid, err = readPIDFile(PIDPath(cfg))
		if err != nil {
			return 0, err
		}
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to stop current process (pid %d)", pid)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return 0, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}

	if waitForShutdown(ctx, addr, gracePeriod) {
		return pid, nil
	}
	if err := proc.Kill(); err != nil {
		return pid, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	return pid, nil
}

func waitForShutdown(ctx context.Context, addr string, timeout time.Duration) bool {
	client := NewClient(addr)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := client.Status(ctx); errors.Is(err, ErrDaemonNotRunning) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(200 * time.Millisecond):
		}
	}
	return false
}

// PIDPath returns the daemon pid file location for the given config.
func PIDPath(cfg *config.Config) string {
	if cfg == nil {
		return filepath.Join(os.TempDir(), "scanbayd.pid")
	}
	return filepath.Join(cfg.Paths.LogDir, "scanbayd.pid")
}

// WritePIDFile records the current process id for later stop commands.
func WritePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read daemon pid file %q: %w", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %q", path)
	}
	return pid, nil
}
