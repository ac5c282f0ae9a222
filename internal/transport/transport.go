// Package transport carries relay requests to the privileged agent.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/AlexZinkM/wallet-agent/internal/model"
)

// Agent delivers one request to the agent and returns its answer. An error means the agent
// could not be reached; agent-side failures come back inside the Response.
type Agent interface {
	Send(ctx context.Context, req model.AgentRequest) (model.Response, error)
}

// HandlerFunc answers a request in-process.
type HandlerFunc func(ctx context.Context, req model.AgentRequest) model.Response

// Local calls a handler in the same process. Detach simulates the agent going away.
type Local struct {
	handler  HandlerFunc
	detached atomic.Bool
}

func NewLocal(handler HandlerFunc) *Local {
	return &Local{handler: handler}
}

func (l *Local) Send(ctx context.Context, req model.AgentRequest) (model.Response, error) {
	if l.detached.Load() {
		return model.Response{}, model.ErrTransport
	}
	return l.handler(ctx, req), nil
}

// Detach makes every later Send fail with model.ErrTransport.
func (l *Local) Detach() {
	l.detached.Store(true)
}

// HTTPAgent posts requests to the agent's /rpc endpoint.
// It sets no client timeout: an approval may legitimately take minutes, so the caller's ctx bounds it.
type HTTPAgent struct {
	url    string
	client *http.Client
}

func NewHTTPAgent(baseURL string) *HTTPAgent {
	return &HTTPAgent{
		url:    strings.TrimRight(baseURL, "/") + "/rpc",
		client: &http.Client{},
	}
}

func (a *HTTPAgent) Send(ctx context.Context, req model.AgentRequest) (model.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return model.Response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return model.Response{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return model.Response{}, fmt.Errorf("%w: %v", model.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return model.Response{}, fmt.Errorf("%w: agent answered status %d", model.ErrTransport, resp.StatusCode)
	}

	var out model.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.Response{}, fmt.Errorf("%w: failed to decode response: %v", model.ErrTransport, err)
	}
	return out, nil
}
