// Package relay sits between an untrusted page and the agent. It accepts only messages the
// page posted to its own window, stamps them with the window's origin and posts the agent's
// answer back under the original request id.
package relay

import (
	"context"
	"sync"

	"github.com/AlexZinkM/wallet-agent/internal/model"
	"github.com/AlexZinkM/wallet-agent/internal/transport"
	"github.com/AlexZinkM/wallet-agent/internal/window"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Default flood control. The burst covers a page's opening round of
// refresh, connect and a batch of sign requests.
const (
	DefaultRate  = 20
	DefaultBurst = 50
)

type Relay struct {
	win     *window.Window
	agent   transport.Agent
	limiter *rate.Limiter

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	listener window.ListenerID
}

type Option func(*Relay)

// WithRateLimit bounds how many requests per second the page may push through.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(r *Relay) { r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// New attaches a relay to win. Requests are served until Stop.
func New(win *window.Window, agent transport.Agent, opts ...Option) *Relay {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Relay{
		win:     win,
		agent:   agent,
		limiter: rate.NewLimiter(DefaultRate, DefaultBurst),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.listener = win.AddListener(r.onMessage)
	return r
}

// Stop detaches from the window, cancels in-flight requests and waits for their replies.
// What the page sees is the agent's answer to the cancellation: an in-process broker settles
// the pending approval as rejected, while an HTTP agent fails with a transport error.
func (r *Relay) Stop() {
	r.win.RemoveListener(r.listener)
	r.cancel()
	r.wg.Wait()
}

func (r *Relay) onMessage(ev window.Event) {
	// only the page's own window, never a frame or another page
	if ev.Source != r.win || ev.Data.Target != model.TargetInpage {
		return
	}
	msg := ev.Data

	logger := log.WithFields(log.Fields{"type": msg.Type, "origin": r.win.Origin(), "id": msg.Data.ID})

	if !r.limiter.Allow() {
		logger.Warn("relay rate limit exceeded")
		r.reply(msg, model.ErrorResponseOf(model.ErrRateLimited))
		return
	}

	req := model.AgentRequest{
		Type:   msg.Type,
		Params: msg.Data.Params,
		Origin: r.win.Origin(),
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		resp, err := r.agent.Send(r.ctx, req)
		if err != nil {
			logger.WithError(err).Warn("agent unreachable")
			resp = model.Response{Error: model.ErrTransport.Error()}
		}
		r.reply(msg, resp)
	}()
}

func (r *Relay) reply(msg model.PageMessage, resp model.Response) {
	r.win.Post(model.PageMessage{
		Target: model.TargetContent,
		Type:   msg.Type,
		Data: model.PageData{
			ID:     msg.Data.ID,
			Result: resp.Result,
			Error:  resp.Error,
		},
	})
}
