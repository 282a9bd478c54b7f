package daemonctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"scanbay/internal/api"
)

// ErrDaemonNotRunning indicates the daemon API is unreachable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Client talks to the scanbayd HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the daemon bound at addr (host:port).
func NewClient(addr string) *Client {
	addr = strings.TrimSpace(addr)
	return &Client{
		baseURL: "http://" + addr,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var status api.DaemonStatus
	if err := c.get(ctx, "/api/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Ledger fetches the current session inventory.
func (c *Client) Ledger(ctx context.Context) (*api.LedgerResponse, error) {
	var resp api.LedgerResponse
	if err := c.get(ctx, "/api/ledger", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History fetches archived snapshots.
func (c *Client) History(ctx context.Context) (*api.HistoryResponse, error) {
	var resp api.HistoryResponse
	if err := c.get(ctx, "/api/history", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Snapshot fetches one archived snapshot with its records.
func (c *Client) Snapshot(ctx context.Context, id string) (*api.SnapshotResponse, error) {
	var resp api.SnapshotResponse
	if err := c.get(ctx, "/api/history/"+id, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Scan submits a manually entered device identifier.
func (c *Client) Scan(ctx context.Context, deviceID string) error {
	return c.post(ctx, "/api/scan", api.ScanRequest{DeviceID: deviceID}, nil)
}

// SetMode switches the active recognition mode.
func (c *Client) SetMode(ctx context.Context, mode string) (*api.AcceptedResponse, error) {
	var resp api.AcceptedResponse
	if err := c.post(ctx, "/api/mode", api.ModeRequest{Mode: mode}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetComponent switches the active component type.
func (c *Client) SetComponent(ctx context.Context, component string) (*api.AcceptedResponse, error) {
	var resp api.AcceptedResponse
	if err := c.post(ctx, "/api/component", api.ComponentRequest{Component: component}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Export persists the session ledger to the archive.
func (c *Client) Export(ctx context.Context) (*api.ExportResponse, error) {
	var resp api.ExportResponse
	if err := c.post(ctx, "/api/export", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Clear wipes the session inventory.
func (c *Client) Clear(ctx context.Context) error {
	return c.post(ctx, "/api/clear", nil, nil)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		if isDaemonUnavailable(err) {
			return fmt.Errorf("%w: start it with `scanbay daemon start`", ErrDaemonNotRunning)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon: %s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func isDaemonUnavailable(err error) bool {
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
