// Package provider is the page-side wallet API. It keeps the connected account for synchronous
// reads and sends every other call through the window to the relay.
package provider

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/AlexZinkM/wallet-agent/internal/model"
	"github.com/AlexZinkM/wallet-agent/internal/window"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const DefaultTimeout = 5 * time.Minute

type Event string

const (
	EventConnect    Event = "connect"
	EventDisconnect Event = "disconnect"
)

type ListenerID uint64

// ConnectOptions mirrors the page-facing connect options.
type ConnectOptions struct {
	OnlyIfTrusted bool
}

// Provider correlates requests and answers by id. Calls still waiting when the timeout fires
// fail with model.ErrTimeout; the agent side is not told.
type Provider struct {
	win      *window.Window
	timeout  time.Duration
	listener window.ListenerID

	mu        sync.Mutex
	nextID    uint64
	calls     map[uint64]chan model.PageData
	publicKey *solana.PublicKey

	obsMu     sync.Mutex
	nextObs   ListenerID
	observers map[ListenerID]observer
}

type observer struct {
	event Event
	fn    func(solana.PublicKey)
}

type Option func(*Provider)

func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// New attaches a provider to the page window.
func New(win *window.Window, opts ...Option) *Provider {
	p := &Provider{
		win:       win,
		timeout:   DefaultTimeout,
		calls:     make(map[uint64]chan model.PageData),
		observers: make(map[ListenerID]observer),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.listener = win.AddListener(p.onMessage)
	return p
}

// Close detaches from the window. Outstanding calls run into their timeout.
func (p *Provider) Close() {
	p.win.RemoveListener(p.listener)
}

// PublicKey returns the connected address, or the zero key when disconnected.
func (p *Provider) PublicKey() solana.PublicKey {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.publicKey == nil {
		return solana.PublicKey{}
	}
	return *p.publicKey
}

func (p *Provider) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.publicKey != nil
}

// Connect asks for the selected account. With OnlyIfTrusted the agent answers from existing
// grants and never prompts.
func (p *Provider) Connect(ctx context.Context, opts ConnectOptions) (solana.PublicKey, error) {
	var result model.ConnectResult
	if err := p.call(ctx, model.ConnectParams{OnlyIfTrusted: opts.OnlyIfTrusted}, &result); err != nil {
		return solana.PublicKey{}, err
	}
	key, err := solana.PublicKeyFromBase58(result.PublicKey)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("agent returned invalid public key: %w", err)
	}
	p.setConnected(key)
	return key, nil
}

// Refresh picks up an existing grant without prompting. It reports whether the page is connected.
func (p *Provider) Refresh(ctx context.Context) (bool, error) {
	var result model.AccountResult
	if err := p.call(ctx, model.GetAccountParams{}, &result); err != nil {
		return false, err
	}
	if result.PublicKey == nil {
		return false, nil
	}
	key, err := solana.PublicKeyFromBase58(*result.PublicKey)
	if err != nil {
		return false, fmt.Errorf("agent returned invalid public key: %w", err)
	}
	p.setConnected(key)
	return true, nil
}

// Disconnect revokes the grant. Local state is cleared even when the agent cannot be reached.
func (p *Provider) Disconnect(ctx context.Context) error {
	var result model.DisconnectResult
	err := p.call(ctx, model.DisconnectParams{}, &result)

	p.mu.Lock()
	was := p.publicKey
	p.publicKey = nil
	p.mu.Unlock()

	if was != nil {
		p.emit(EventDisconnect, *was)
	}
	return err
}

func (p *Provider) SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	if !p.IsConnected() {
		return nil, model.ErrNotConnected
	}
	raw, err := serializeTransaction(tx)
	if err != nil {
		return nil, err
	}

	var result model.SignTransactionResult
	if err := p.call(ctx, model.SignTransactionParams{Transaction: raw}, &result); err != nil {
		return nil, err
	}
	return deserializeTransaction(result.SignedTransaction)
}

func (p *Provider) SignAllTransactions(ctx context.Context, txs []*solana.Transaction) ([]*solana.Transaction, error) {
	if !p.IsConnected() {
		return nil, model.ErrNotConnected
	}
	raws := make([][]byte, 0, len(txs))
	for i, tx := range txs {
		raw, err := serializeTransaction(tx)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		raws = append(raws, raw)
	}

	var result model.SignAllTransactionsResult
	if err := p.call(ctx, model.SignAllTransactionsParams{Transactions: raws}, &result); err != nil {
		return nil, err
	}
	if len(result.SignedTransactions) != len(txs) {
		return nil, fmt.Errorf("agent returned %d transactions, sent %d", len(result.SignedTransactions), len(txs))
	}

	out := make([]*solana.Transaction, 0, len(result.SignedTransactions))
	for i, raw := range result.SignedTransactions {
		tx, err := deserializeTransaction(raw)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		out = append(out, tx)
	}
	return out, nil
}

// SignMessage signs arbitrary bytes with the connected account. display is "utf8" (default) or "hex".
func (p *Provider) SignMessage(ctx context.Context, message []byte, display string) (solana.Signature, error) {
	if !p.IsConnected() {
		return solana.Signature{}, model.ErrNotConnected
	}
	if display == "" {
		display = "utf8"
	}
	if message == nil {
		message = []byte{}
	}

	var result model.SignMessageResult
	if err := p.call(ctx, model.SignMessageParams{Message: message, Display: display}, &result); err != nil {
		return solana.Signature{}, err
	}
	if len(result.Signature) != len(solana.Signature{}) {
		return solana.Signature{}, fmt.Errorf("agent returned a %d byte signature", len(result.Signature))
	}
	return solana.SignatureFromBytes(result.Signature), nil
}

// SignAndSendTransaction only signs. Broadcasting is left to the page.
func (p *Provider) SignAndSendTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	return p.SignTransaction(ctx, tx)
}

// On registers fn for event and returns an id for Off.
func (p *Provider) On(event Event, fn func(solana.PublicKey)) ListenerID {
	p.obsMu.Lock()
	defer p.obsMu.Unlock()

	p.nextObs++
	p.observers[p.nextObs] = observer{event: event, fn: fn}
	return p.nextObs
}

func (p *Provider) Off(id ListenerID) {
	p.obsMu.Lock()
	delete(p.observers, id)
	p.obsMu.Unlock()
}

func (p *Provider) emit(event Event, key solana.PublicKey) {
	p.obsMu.Lock()
	var fns []func(solana.PublicKey)
	for _, id := range slices.Sorted(maps.Keys(p.observers)) {
		if o := p.observers[id]; o.event == event {
			fns = append(fns, o.fn)
		}
	}
	p.obsMu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}

func (p *Provider) setConnected(key solana.PublicKey) {
	p.mu.Lock()
	p.publicKey = &key
	p.mu.Unlock()

	p.emit(EventConnect, key)
}

// call posts params under a fresh id and decodes the answer into out.
func (p *Provider) call(ctx context.Context, params model.Params, out any) error {
	raw, err := model.EncodeParams(params)
	if err != nil {
		return err
	}

	ch := make(chan model.PageData, 1)
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.calls[id] = ch
	p.mu.Unlock()

	p.win.Post(model.PageMessage{
		Target: model.TargetInpage,
		Type:   params.Kind(),
		Data:   model.PageData{ID: id, Params: raw},
	})

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	var data model.PageData
	select {
	case data = <-ch:
	case <-timer.C:
		p.forget(id)
		return model.ErrTimeout
	case <-ctx.Done():
		p.forget(id)
		return ctx.Err()
	}

	resp := model.Response{Result: data.Result, Error: data.Error}
	return resp.Decode(out)
}

func (p *Provider) forget(id uint64) {
	p.mu.Lock()
	delete(p.calls, id)
	p.mu.Unlock()
}

func (p *Provider) onMessage(ev window.Event) {
	if ev.Source != p.win || ev.Data.Target != model.TargetContent {
		return
	}
	id := ev.Data.Data.ID

	p.mu.Lock()
	ch, ok := p.calls[id]
	delete(p.calls, id)
	p.mu.Unlock()

	// late answers after a timeout have nobody to go to
	if ok {
		ch <- ev.Data.Data
	}
}

// serializeTransaction encodes tx in wire format. Missing signatures are sent as zero
// placeholders for the agent to fill.
func serializeTransaction(tx *solana.Transaction) ([]byte, error) {
	if tx == nil {
		return nil, errors.New("transaction is nil")
	}
	required := int(tx.Message.Header.NumRequiredSignatures)
	cp := *tx
	if len(cp.Signatures) != required {
		cp.Signatures = make([]solana.Signature, required)
		copy(cp.Signatures, tx.Signatures)
	}
	raw, err := cp.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return raw, nil
}

func deserializeTransaction(raw []byte) (*solana.Transaction, error) {
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode signed transaction: %w", err)
	}
	return tx, nil
}
