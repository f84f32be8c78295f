// Package walletd talks JSON-RPC 2.0 to the Tari wallet daemon.
package walletd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/rpc/v2/json2"

	"github.com/tari-project/tapplet-host/internal/config"
	"github.com/tari-project/tapplet-host/internal/signer"
)

// RPCError is an error object returned by the daemon for one method call
type RPCError struct {
	Method  string
	Code    int
	Message string
	Data    any
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("wallet daemon %s failed (%d): %s", e.Method, e.Code, e.Message)
}

// Client is a wallet daemon connection shared by every session signer.
// Calls are independent HTTP requests; the daemon multiplexes them.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
	log        *slog.Logger
}

var _ signer.DaemonClient = (*Client)(nil)

// NewClient creates a daemon client from runtime config
func NewClient(cfg *config.RuntimeConfig, log *slog.Logger) *Client {
	return &Client{
		url:   cfg.DaemonURL,
		token: cfg.DaemonToken,
		httpClient: &http.Client{
			Timeout: cfg.DaemonTimeout,
		},
		log: log.With("component", "walletd"),
	}
}

// Call invokes method with params encoded as a JSON-RPC params object and
// decodes the result into result.
func (c *Client) Call(ctx context.Context, method string, params any, result any) error {
	body, err := json2.EncodeClientRequest(method, params)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wallet daemon unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("wallet daemon returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if err := json2.DecodeClientResponse(resp.Body, result); err != nil {
		var rpcErr *json2.Error
		if errors.As(err, &rpcErr) {
			return &RPCError{
				Method:  method,
				Code:    int(rpcErr.Code),
				Message: rpcErr.Message,
				Data:    rpcErr.Data,
			}
		}
		return fmt.Errorf("malformed %s response: %w", method, err)
	}

	c.log.Debug("wallet daemon call completed", "method", method)
	return nil
}
