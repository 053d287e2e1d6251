// SPDX-License-Identifier: Apache-2.0

// Package probe issues resilient HTTP queries against beacon endpoints and
// decodes their JSON responses.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Prober fetches JSON documents from endpoints. A single probe issues a GET
// and, if the endpoint answers 405 Method Not Allowed, retries once with
// POST. There are no further retries and no timeout beyond the client's own.
type Prober struct {
	client *http.Client
	logger *zap.Logger
}

// New creates a Prober. A nil client gets a fresh default client with a 30s
// timeout; a nil logger disables logging.
func New(client *http.Client, logger *zap.Logger) *Prober {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{client: client, logger: logger}
}

// Probe queries endpoint and returns its decoded JSON body. Failures are
// returned as *Error with the Kind recording the classification: a
// non-success status (after the 405 POST fallback, if taken) is
// KindUnresponsive, a body that does not decode is KindNotJSON, and a
// transport failure on the initial GET is KindBadStatus or KindRequestFailed
// depending on whether the failure arose from handling a received response.
func (p *Prober) Probe(ctx context.Context, endpoint *url.URL) (any, error) {
	target := endpoint.String()

	resp, err := p.do(ctx, http.MethodGet, target)
	if err != nil {
		kind := KindRequestFailed
		if isResponseHandlingError(err) {
			kind = KindBadStatus
		}
		p.logger.Error("endpoint query failed",
			zap.String("url", target),
			zap.Error(err),
		)
		return nil, &Error{Kind: kind, URL: target, Err: err}
	}

	if resp.StatusCode == http.StatusMethodNotAllowed {
		discard(resp)
		p.logger.Debug("GET not allowed, retrying with POST", zap.String("url", target))
		resp, err = p.do(ctx, http.MethodPost, target)
		if err != nil {
			return nil, &Error{Kind: KindUnresponsive, URL: target, Err: err}
		}
	}
	defer discard(resp)

	if !isSuccess(resp.StatusCode) {
		p.logger.Error("endpoint returned non-success status",
			zap.String("url", target),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &Error{
			Kind: KindUnresponsive,
			URL:  target,
			Err:  fmt.Errorf("status %s", resp.Status),
		}
	}

	var document any
	if err := json.NewDecoder(resp.Body).Decode(&document); err != nil {
		p.logger.Error("endpoint response is not JSON",
			zap.String("url", target),
			zap.Error(err),
		)
		return nil, &Error{Kind: KindNotJSON, URL: target, Err: err}
	}
	return document, nil
}

func (p *Prober) do(ctx context.Context, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	return p.client.Do(req)
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}

// isResponseHandlingError reports whether a client error was produced while
// handling a response the endpoint did return, which net/http only does when
// its redirect policy gives up. Network-level failures never qualify.
func isResponseHandlingError(err error) bool {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return false
	}
	var nerr net.Error
	if errors.As(uerr.Err, &nerr) {
		return false
	}
	return strings.Contains(uerr.Err.Error(), "redirect")
}

// discard finishes a response body so the connection can be reused.
func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
