package broker

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AlexZinkM/wallet-agent/internal/model"
	"github.com/AlexZinkM/wallet-agent/internal/registry"
	"github.com/AlexZinkM/wallet-agent/internal/session"
	"github.com/AlexZinkM/wallet-agent/internal/store"
	"github.com/AlexZinkM/wallet-agent/internal/surface"
	"github.com/AlexZinkM/wallet-agent/wallet"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/require"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testPassword = "correct-horse-battery-staple12"
	account0     = "HAgk14JpMQLgt6rVgv7cBQFJWFto5Dqxi472uT3DKpqk"
	helloSigHex  = "86854909891a2cafb6289a1781b205c0903b3d1d117fe85775533ffe4864146ae67b6381ce931cd68f64df043f3a7c6f4eab326f93088b698449ca703e008606"
)

type fakeSurface struct {
	params model.LaunchParams
	done   chan struct{}
	once   sync.Once
	closed atomic.Bool
}

func (s *fakeSurface) Done() <-chan struct{} { return s.done }

func (s *fakeSurface) Close() {
	s.closed.Store(true)
	s.dismiss()
}

// dismiss simulates the human closing the window.
func (s *fakeSurface) dismiss() {
	s.once.Do(func() { close(s.done) })
}

type fakeHost struct {
	launched chan *fakeSurface
	opened   atomic.Int32
	fail     error
}

func newFakeHost() *fakeHost {
	return &fakeHost{launched: make(chan *fakeSurface, 16)}
}

func (h *fakeHost) Open(_ context.Context, params model.LaunchParams) (surface.Surface, error) {
	if h.fail != nil {
		return nil, h.fail
	}
	h.opened.Add(1)
	s := &fakeSurface{params: params, done: make(chan struct{})}
	h.launched <- s
	return s, nil
}

func (h *fakeHost) next(t *testing.T) *fakeSurface {
	t.Helper()
	select {
	case s := <-h.launched:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no decision surface opened")
		return nil
	}
}

type testEnv struct {
	broker   *Broker
	host     *fakeHost
	registry *registry.Registry
	wallet   *wallet.Service
	launches store.KV
}

func newTestEnv(t *testing.T, withWallet bool, timeout time.Duration) *testEnv {
	t.Helper()
	ctx := context.Background()

	vault := store.NewVault(store.NewMemory())
	sess := session.New(store.NewMemory())
	reg := registry.New(vault)
	require.NoError(t, reg.Hydrate(ctx))
	svc := wallet.New(vault, sess, wallet.WithRegistry(reg))
	if withWallet {
		_, err := svc.Import(ctx, testMnemonic, []byte(testPassword))
		require.NoError(t, err)
	}

	host := newFakeHost()
	launches := sess.KV()
	return &testEnv{
		broker:   New(svc, reg, host, launches, timeout),
		host:     host,
		registry: reg,
		wallet:   svc,
		launches: launches,
	}
}

func request(kind model.RequestKind, origin string, params string) model.AgentRequest {
	req := model.AgentRequest{Type: kind, Origin: origin}
	if params != "" {
		req.Params = json.RawMessage(params)
	}
	return req
}

// handleAsync runs Handle in the background, like the relay does.
func (e *testEnv) handleAsync(ctx context.Context, req model.AgentRequest) <-chan model.Response {
	out := make(chan model.Response, 1)
	go func() { out <- e.broker.Handle(ctx, req) }()
	return out
}

func await(t *testing.T, ch <-chan model.Response) model.Response {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(3 * time.Second):
		t.Fatal("request never settled")
		return model.Response{}
	}
}

func TestConnectWithoutWallet(t *testing.T) {
	env := newTestEnv(t, false, 0)

	resp := env.broker.Handle(context.Background(), request(model.KindConnect, "https://evil.example", `{}`))
	require.Equal(t, model.MsgNoWallet, resp.Error)
	require.Zero(t, env.host.opened.Load())
}

func TestSignWithoutGrant(t *testing.T) {
	env := newTestEnv(t, true, 0)
	ctx := context.Background()

	for _, req := range []model.AgentRequest{
		request(model.KindSignMessage, "https://dapp.example", `{"message":"aGVsbG8="}`),
		request(model.KindSignTransaction, "https://dapp.example", `{"transaction":"AA=="}`),
		request(model.KindSignAllTransactions, "https://dapp.example", `{"transactions":["AA=="]}`),
	} {
		resp := env.broker.Handle(ctx, req)
		require.Equal(t, model.MsgNotConnected, resp.Error)
	}
	require.Zero(t, env.host.opened.Load())
}

func TestSilentReconnect(t *testing.T) {
	env := newTestEnv(t, true, 0)
	ctx := context.Background()

	resp := env.broker.Handle(ctx, request(model.KindConnect, "https://dapp.example", `{"onlyIfTrusted":true}`))
	require.Equal(t, model.MsgRejected, resp.Error)

	_, err := env.registry.Grant(ctx, "https://dapp.example", account0)
	require.NoError(t, err)

	resp = env.broker.Handle(ctx, request(model.KindConnect, "https://dapp.example", `{"onlyIfTrusted":true}`))
	var result model.ConnectResult
	require.NoError(t, resp.Decode(&result))
	require.Equal(t, account0, result.PublicKey)
	require.Zero(t, env.host.opened.Load())
}

func TestConnectApproved(t *testing.T) {
	env := newTestEnv(t, true, 0)
	ctx := context.Background()

	ch := env.handleAsync(ctx, request(model.KindConnect, "https://dapp.example", ""))
	s := env.host.next(t)
	require.Equal(t, model.ApprovalConnect, s.params.Kind)
	require.Equal(t, account0, s.params.Address)
	require.Equal(t, "https://dapp.example", s.params.Origin)

	require.NoError(t, env.broker.Approve(ctx, s.params.ApprovalID, nil))

	var result model.ConnectResult
	require.NoError(t, await(t, ch).Decode(&result))
	require.Equal(t, account0, result.PublicKey)
	require.True(t, s.closed.Load())

	grant, err := env.registry.IsConnected(ctx, "https://dapp.example")
	require.NoError(t, err)
	require.NotNil(t, grant)
	require.Equal(t, account0, grant.Address)
}

func TestSurfaceClosureRejects(t *testing.T) {
	env := newTestEnv(t, true, 0)
	ctx := context.Background()

	ch := env.handleAsync(ctx, request(model.KindConnect, "https://dapp.example", ""))
	s := env.host.next(t)
	s.dismiss()

	resp := await(t, ch)
	require.Equal(t, model.MsgRejected, resp.Error)
	require.Empty(t, env.broker.Pending())

	grant, err := env.registry.IsConnected(ctx, "https://dapp.example")
	require.NoError(t, err)
	require.Nil(t, grant)

	// a late decision from the closed surface is ignored
	require.ErrorIs(t, env.broker.Approve(ctx, s.params.ApprovalID, nil), model.ErrApprovalNotFound)
}

func TestExplicitRejectLooksLikeClosure(t *testing.T) {
	env := newTestEnv(t, true, 0)
	ctx := context.Background()

	ch := env.handleAsync(ctx, request(model.KindConnect, "https://dapp.example", ""))
	s := env.host.next(t)
	env.broker.Reject(s.params.ApprovalID)

	require.Equal(t, model.MsgRejected, await(t, ch).Error)
	require.True(t, s.closed.Load())
}

func TestApprovalIDsAreMonotonic(t *testing.T) {
	env := newTestEnv(t, true, 0)
	ctx := context.Background()

	var ids []uint64
	for i := range 4 {
		ch := env.handleAsync(ctx, request(model.KindConnect, "https://dapp.example", ""))
		s := env.host.next(t)
		ids = append(ids, s.params.ApprovalID)
		if i%2 == 0 {
			require.NoError(t, env.broker.Approve(ctx, s.params.ApprovalID, nil))
		} else {
			env.broker.Reject(s.params.ApprovalID)
		}
		await(t, ch)
	}
	require.Equal(t, []uint64{1, 2, 3, 4}, ids)
}

func TestResolveAtMostOnce(t *testing.T) {
	env := newTestEnv(t, true, 0)
	ctx := context.Background()

	type res struct {
		data json.RawMessage
		err  error
	}
	out := make(chan res, 1)
	go func() {
		data, err := env.broker.Open(ctx, model.LaunchParams{Kind: model.ApprovalConnect, Origin: "https://dapp.example"})
		out <- res{data, err}
	}()
	s := env.host.next(t)
	id := s.params.ApprovalID

	require.True(t, env.broker.Resolve(id, true, json.RawMessage(`"first"`)))
	require.False(t, env.broker.Resolve(id, false, nil))
	require.False(t, env.broker.Resolve(id+100, true, nil))

	select {
	case r := <-out:
		require.NoError(t, r.err)
		require.JSONEq(t, `"first"`, string(r.data))
	case <-time.After(2 * time.Second):
		t.Fatal("open never returned")
	}
}

func TestSignMessageScenario(t *testing.T) {
	env := newTestEnv(t, true, 0)
	ctx := context.Background()
	_, err := env.registry.Grant(ctx, "https://dapp.example", account0)
	require.NoError(t, err)

	ch := env.handleAsync(ctx, request(model.KindSignMessage, "https://dapp.example", `{"message":"aGVsbG8=","display":"utf8"}`))
	s := env.host.next(t)
	id := s.params.ApprovalID
	require.Equal(t, model.ApprovalSignMessage, s.params.Kind)
	require.Equal(t, []byte("hello"), s.params.Message)

	launch, err := env.broker.Launch(ctx, id)
	require.NoError(t, err)
	require.Equal(t, s.params, launch)

	// wrong password is retryable and leaves the request pending
	require.ErrorIs(t, env.broker.Approve(ctx, id, []byte("wrong")), model.ErrWrongPassword)
	require.Len(t, env.broker.Pending(), 1)
	select {
	case <-ch:
		t.Fatal("wrong password settled the request")
	default:
	}

	require.NoError(t, env.broker.Approve(ctx, id, []byte(testPassword)))

	var result model.SignMessageResult
	require.NoError(t, await(t, ch).Decode(&result))
	require.Equal(t, helloSigHex, hex.EncodeToString(result.Signature))

	pub := solana.MustPublicKeyFromBase58(account0)
	require.True(t, ed25519.Verify(ed25519.PublicKey(pub[:]), []byte("hello"), result.Signature))

	_, err = env.broker.Launch(ctx, id)
	require.ErrorIs(t, err, model.ErrApprovalNotFound)
}

func transferTx(t *testing.T, payer solana.PublicKey) []byte {
	t.Helper()
	to := solana.NewWallet().PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1000, payer, to).Build()},
		solana.Hash{},
		solana.TransactionPayer(payer),
	)
	require.NoError(t, err)
	// unsigned placeholder, as a page serializes a partially signed transaction
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return raw
}

func TestSignTransactionsApproved(t *testing.T) {
	env := newTestEnv(t, true, 0)
	ctx := context.Background()
	_, err := env.registry.Grant(ctx, "https://dapp.example", account0)
	require.NoError(t, err)

	payer := solana.MustPublicKeyFromBase58(account0)
	raws := [][]byte{transferTx(t, payer), transferTx(t, payer)}
	params, err := json.Marshal(model.SignAllTransactionsParams{Transactions: raws})
	require.NoError(t, err)

	ch := env.handleAsync(ctx, request(model.KindSignAllTransactions, "https://dapp.example", string(params)))
	s := env.host.next(t)
	require.Len(t, s.params.Transactions, 2)
	require.NoError(t, env.broker.Approve(ctx, s.params.ApprovalID, []byte(testPassword)))

	var result model.SignAllTransactionsResult
	require.NoError(t, await(t, ch).Decode(&result))
	require.Len(t, result.SignedTransactions, 2)

	for _, signed := range result.SignedTransactions {
		tx, err := decodeTransaction(signed)
		require.NoError(t, err)
		require.Len(t, tx.Signatures, 1)
		msg, err := tx.Message.MarshalBinary()
		require.NoError(t, err)
		require.True(t, ed25519.Verify(ed25519.PublicKey(payer[:]), msg, tx.Signatures[0][:]))
	}
}

func TestSignTransactionForeignSignerRejects(t *testing.T) {
	env := newTestEnv(t, true, 0)
	ctx := context.Background()
	_, err := env.registry.Grant(ctx, "https://dapp.example", account0)
	require.NoError(t, err)

	params, err := json.Marshal(model.SignTransactionParams{Transaction: transferTx(t, solana.NewWallet().PublicKey())})
	require.NoError(t, err)

	ch := env.handleAsync(ctx, request(model.KindSignTransaction, "https://dapp.example", string(params)))
	s := env.host.next(t)
	require.ErrorContains(t, env.broker.Approve(ctx, s.params.ApprovalID, []byte(testPassword)), "not a required signer")
	require.Equal(t, model.MsgRejected, await(t, ch).Error)
}

func TestInvalidTransactionNeverReachesSurface(t *testing.T) {
	env := newTestEnv(t, true, 0)
	ctx := context.Background()
	_, err := env.registry.Grant(ctx, "https://dapp.example", account0)
	require.NoError(t, err)

	resp := env.broker.Handle(ctx, request(model.KindSignTransaction, "https://dapp.example", `{"transaction":"AQID"}`))
	require.Equal(t, model.MsgRejected, resp.Error)
	require.Zero(t, env.host.opened.Load())
}

func TestApprovalExpires(t *testing.T) {
	env := newTestEnv(t, true, 30*time.Millisecond)

	ch := env.handleAsync(context.Background(), request(model.KindConnect, "https://dapp.example", ""))
	s := env.host.next(t)

	require.Equal(t, model.MsgRejected, await(t, ch).Error)
	require.True(t, s.closed.Load())
	require.Empty(t, env.broker.Pending())
}

func TestCallerCancellationRejects(t *testing.T) {
	env := newTestEnv(t, true, 0)
	ctx, cancel := context.WithCancel(context.Background())

	ch := env.handleAsync(ctx, request(model.KindConnect, "https://dapp.example", ""))
	s := env.host.next(t)
	cancel()

	require.Equal(t, model.MsgRejected, await(t, ch).Error)
	require.True(t, s.closed.Load())
}

func TestSurfaceHostFailureRejects(t *testing.T) {
	env := newTestEnv(t, true, 0)
	env.host.fail = errors.New("no display")

	resp := env.broker.Handle(context.Background(), request(model.KindConnect, "https://dapp.example", ""))
	require.Equal(t, model.MsgRejected, resp.Error)
	require.Empty(t, env.broker.Pending())
}

func TestConcurrentRequestsAreIndependent(t *testing.T) {
	env := newTestEnv(t, true, 0)
	ctx := context.Background()

	first := env.handleAsync(ctx, request(model.KindConnect, "https://a.example", ""))
	a := env.host.next(t)
	second := env.handleAsync(ctx, request(model.KindConnect, "https://b.example", ""))
	b := env.host.next(t)

	a.dismiss()
	require.Equal(t, model.MsgRejected, await(t, first).Error)
	require.Len(t, env.broker.Pending(), 1)

	require.NoError(t, env.broker.Approve(ctx, b.params.ApprovalID, nil))
	require.Empty(t, await(t, second).Error)
}

func TestDisconnectAndGetAccount(t *testing.T) {
	env := newTestEnv(t, true, 0)
	ctx := context.Background()
	_, err := env.registry.Grant(ctx, "https://dapp.example", account0)
	require.NoError(t, err)

	var acc model.AccountResult
	require.NoError(t, env.broker.Handle(ctx, request(model.KindGetAccount, "https://dapp.example", "")).Decode(&acc))
	require.NotNil(t, acc.PublicKey)
	require.Equal(t, account0, *acc.PublicKey)

	var disc model.DisconnectResult
	require.NoError(t, env.broker.Handle(ctx, request(model.KindDisconnect, "https://dapp.example", "")).Decode(&disc))
	require.True(t, disc.Success)

	acc = model.AccountResult{}
	require.NoError(t, env.broker.Handle(ctx, request(model.KindGetAccount, "https://dapp.example", "")).Decode(&acc))
	require.Nil(t, acc.PublicKey)
}

func TestUnknownRequest(t *testing.T) {
	env := newTestEnv(t, false, 0)

	resp := env.broker.Handle(context.Background(), request("SAIFU_SELF_DESTRUCT", "https://dapp.example", ""))
	require.Contains(t, resp.Error, "unknown message type")

	resp = env.broker.Handle(context.Background(), request(model.KindConnect, "", ""))
	require.Equal(t, model.MsgRejected, resp.Error)
}
