package relay

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/AlexZinkM/wallet-agent/internal/model"
	"github.com/AlexZinkM/wallet-agent/internal/transport"
	"github.com/AlexZinkM/wallet-agent/internal/window"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	reqs []model.AgentRequest
}

func (r *recorder) handle(_ context.Context, req model.AgentRequest) model.Response {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()
	return model.ResultResponse(model.ConnectResult{PublicKey: "HAgk14JpMQLgt6rVgv7cBQFJWFto5Dqxi472uT3DKpqk"})
}

func (r *recorder) requests() []model.AgentRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.AgentRequest(nil), r.reqs...)
}

// replies collects what the relay posts back to the page.
func replies(t *testing.T, w *window.Window) <-chan model.PageMessage {
	t.Helper()
	out := make(chan model.PageMessage, 16)
	w.AddListener(func(ev window.Event) {
		if ev.Source == w && ev.Data.Target == model.TargetContent {
			out <- ev.Data
		}
	})
	return out
}

func next(t *testing.T, ch <-chan model.PageMessage) model.PageMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no reply from relay")
		return model.PageMessage{}
	}
}

func pageRequest(id uint64, kind model.RequestKind, params string) model.PageMessage {
	return model.PageMessage{
		Target: model.TargetInpage,
		Type:   kind,
		Data:   model.PageData{ID: id, Params: json.RawMessage(params)},
	}
}

func TestRelayInjectsWindowOrigin(t *testing.T) {
	w := window.New("https://dapp.example")
	defer w.Close()
	rec := &recorder{}
	r := New(w, transport.NewLocal(rec.handle))
	defer r.Stop()
	out := replies(t, w)

	// a page claiming another origin in its params gets no say
	w.Post(pageRequest(7, model.KindConnect, `{"onlyIfTrusted":false,"origin":"https://bank.example"}`))

	msg := next(t, out)
	require.Equal(t, uint64(7), msg.Data.ID)
	require.Equal(t, model.KindConnect, msg.Type)
	require.Empty(t, msg.Data.Error)
	require.JSONEq(t, `{"publicKey":"HAgk14JpMQLgt6rVgv7cBQFJWFto5Dqxi472uT3DKpqk"}`, string(msg.Data.Result))

	reqs := rec.requests()
	require.Len(t, reqs, 1)
	require.Equal(t, "https://dapp.example", reqs[0].Origin)
}

func TestRelayIgnoresForeignMessages(t *testing.T) {
	w := window.New("https://dapp.example")
	defer w.Close()
	frame := window.New("https://ads.example")
	defer frame.Close()
	rec := &recorder{}
	r := New(w, transport.NewLocal(rec.handle))
	defer r.Stop()
	out := replies(t, w)

	w.PostMessage(frame, pageRequest(1, model.KindConnect, `{}`))
	w.Post(model.PageMessage{Target: "someone-else", Type: model.KindConnect, Data: model.PageData{ID: 2}})
	w.Post(model.PageMessage{Target: model.TargetContent, Type: model.KindConnect, Data: model.PageData{ID: 3}})
	w.Post(pageRequest(4, model.KindGetAccount, ""))

	msg := next(t, out)
	require.Equal(t, uint64(4), msg.Data.ID)
	require.Len(t, rec.requests(), 1)
}

func TestRelaySynthesizesTransportError(t *testing.T) {
	w := window.New("https://dapp.example")
	defer w.Close()
	rec := &recorder{}
	agent := transport.NewLocal(rec.handle)
	agent.Detach()
	r := New(w, agent)
	defer r.Stop()
	out := replies(t, w)

	w.Post(pageRequest(11, model.KindSignMessage, `{"message":"aGVsbG8="}`))

	msg := next(t, out)
	require.Equal(t, uint64(11), msg.Data.ID)
	require.Equal(t, "extension context not available", msg.Data.Error)
	require.Nil(t, msg.Data.Result)
	require.Empty(t, rec.requests())
}

func TestRelayRateLimit(t *testing.T) {
	w := window.New("https://dapp.example")
	defer w.Close()
	rec := &recorder{}
	r := New(w, transport.NewLocal(rec.handle), WithRateLimit(0, 1))
	defer r.Stop()
	out := replies(t, w)

	for id := uint64(1); id <= 3; id++ {
		w.Post(pageRequest(id, model.KindGetAccount, ""))
	}

	errs := map[uint64]string{}
	for range 3 {
		msg := next(t, out)
		errs[msg.Data.ID] = msg.Data.Error
	}
	require.Equal(t, "", errs[1])
	require.Equal(t, model.MsgRateLimited, errs[2])
	require.Equal(t, model.MsgRateLimited, errs[3])
	require.Len(t, rec.requests(), 1)
}

func TestRelayDefaultLimitAllowsOpeningBurst(t *testing.T) {
	w := window.New("https://dapp.example")
	defer w.Close()
	rec := &recorder{}
	r := New(w, transport.NewLocal(rec.handle))
	defer r.Stop()
	out := replies(t, w)

	// refresh, connect and a dozen signatures in one go
	const n = 14
	for id := uint64(1); id <= n; id++ {
		w.Post(pageRequest(id, model.KindGetAccount, ""))
	}
	for range n {
		require.Empty(t, next(t, out).Data.Error)
	}
	require.Len(t, rec.requests(), n)
}

func TestRelayStopSettlesWaitingRequests(t *testing.T) {
	w := window.New("https://dapp.example")
	defer w.Close()
	started := make(chan struct{})
	agent := transport.NewLocal(func(ctx context.Context, _ model.AgentRequest) model.Response {
		close(started)
		<-ctx.Done()
		return model.ErrorResponseOf(model.ErrUserRejected)
	})
	r := New(w, agent)
	out := replies(t, w)

	w.Post(pageRequest(1, model.KindConnect, ""))
	<-started
	r.Stop()

	msg := next(t, out)
	require.Equal(t, uint64(1), msg.Data.ID)
	require.Equal(t, model.MsgRejected, msg.Data.Error)
}
