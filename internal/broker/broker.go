// Package broker arbitrates every page request through a single human approval gate.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/AlexZinkM/wallet-agent/internal/model"
	"github.com/AlexZinkM/wallet-agent/internal/store"
	"github.com/AlexZinkM/wallet-agent/internal/surface"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultApprovalTimeout = 5 * time.Minute

	launchKeyPrefix = "approval_"
)

// Wallet is what the broker needs from the wallet: the account to offer on connect and a
// freshly derived signing key per approved operation.
type Wallet interface {
	SelectedAccount(ctx context.Context) (model.Account, error)
	SigningKey(ctx context.Context, password []byte, address string) (solana.PrivateKey, error)
}

// Grants is the connection registry.
type Grants interface {
	IsConnected(ctx context.Context, origin string) (*model.ConnectionGrant, error)
	Grant(ctx context.Context, origin, address string) (model.ConnectionGrant, error)
	Revoke(ctx context.Context, origin string) error
}

type outcome struct {
	approved bool
	data     json.RawMessage
}

type pending struct {
	params model.LaunchParams
	result chan outcome // buffered 1; written once by settle
}

// Broker owns the pending approval table. Each request id is settled at most once.
type Broker struct {
	wallet   Wallet
	grants   Grants
	host     surface.Host
	launches store.KV
	timeout  time.Duration

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*pending
}

// New builds a broker. launches should be an ephemeral KV; timeout <= 0 uses DefaultApprovalTimeout.
func New(wallet Wallet, grants Grants, host surface.Host, launches store.KV, timeout time.Duration) *Broker {
	if timeout <= 0 {
		timeout = DefaultApprovalTimeout
	}
	return &Broker{
		wallet:   wallet,
		grants:   grants,
		host:     host,
		launches: launches,
		timeout:  timeout,
		pending:  make(map[uint64]*pending),
	}
}

// Open allocates the next approval id, renders one decision surface for it and blocks until
// the request is settled. Closing the surface, rejecting, expiry and ctx cancellation all
// settle as model.ErrUserRejected.
func (b *Broker) Open(ctx context.Context, params model.LaunchParams) (json.RawMessage, error) {
	p := &pending{result: make(chan outcome, 1)}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	params.ApprovalID = id
	p.params = params
	b.pending[id] = p
	b.mu.Unlock()

	logger := log.WithFields(log.Fields{"approvalId": id, "kind": params.Kind, "origin": params.Origin})

	if err := b.storeLaunch(ctx, params); err != nil {
		b.Resolve(id, false, nil)
		<-p.result
		return nil, err
	}
	defer b.dropLaunch(id)

	s, err := b.host.Open(ctx, params)
	if err != nil {
		logger.WithError(err).Warn("failed to open decision surface")
		b.Resolve(id, false, nil)
		<-p.result
		return nil, fmt.Errorf("%w: %v", model.ErrUserRejected, err)
	}
	defer s.Close()

	logger.Info("approval requested")

	expiry := time.NewTimer(b.timeout)
	defer expiry.Stop()

	var (
		out     outcome
		settled bool
	)
	select {
	case out = <-p.result:
		settled = true
	case <-s.Done():
		logger.Debug("decision surface closed")
	case <-expiry.C:
		logger.Warn("approval expired")
	case <-ctx.Done():
		logger.Debug("approval caller went away")
	}
	if !settled {
		// no-op if a decision landed first
		b.Resolve(id, false, nil)
		out = <-p.result
	}
	return b.finish(logger, out)
}

func (b *Broker) finish(logger *log.Entry, out outcome) (json.RawMessage, error) {
	if !out.approved {
		logger.Info("approval rejected")
		return nil, model.ErrUserRejected
	}
	logger.Info("approval granted")
	return out.data, nil
}

// Resolve settles a pending request. The first call for an id wins; later calls and calls
// for unknown ids do nothing. Reports whether this call settled the request.
func (b *Broker) Resolve(id uint64, approved bool, data json.RawMessage) bool {
	b.mu.Lock()
	p, ok := b.pending[id]
	if ok {
		delete(b.pending, id)
	}
	b.mu.Unlock()

	if !ok {
		return false
	}
	p.result <- outcome{approved: approved, data: data}
	return true
}

// Reject settles id as rejected.
func (b *Broker) Reject(id uint64) {
	b.Resolve(id, false, nil)
}

// Approve settles id as approved on behalf of its decision surface. Signing kinds need the
// passphrase: the vault is decrypted and the key derived for this operation only.
// A wrong passphrase returns model.ErrWrongPassword and leaves the request pending.
func (b *Broker) Approve(ctx context.Context, id uint64, password []byte) error {
	params, ok := b.lookup(id)
	if !ok {
		return model.ErrApprovalNotFound
	}

	if !params.Kind.RequiresPassword() {
		if !b.Resolve(id, true, json.RawMessage("true")) {
			return model.ErrApprovalNotFound
		}
		return nil
	}

	data, err := b.sign(ctx, params, password)
	switch {
	case errors.Is(err, model.ErrWrongPassword):
		log.WithField("approvalId", id).Info("wrong password on approval")
		return err
	case err != nil:
		// not retryable: the request cannot be fulfilled
		log.WithError(err).WithField("approvalId", id).Warn("approval failed")
		b.Resolve(id, false, nil)
		return err
	}

	if !b.Resolve(id, true, data) {
		return model.ErrApprovalNotFound
	}
	return nil
}

func (b *Broker) lookup(id uint64) (model.LaunchParams, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pending[id]
	if !ok {
		return model.LaunchParams{}, false
	}
	return p.params, true
}

// Pending lists the launch parameters of every unsettled request, oldest first.
func (b *Broker) Pending() []model.LaunchParams {
	b.mu.Lock()
	out := make([]model.LaunchParams, 0, len(b.pending))
	for _, id := range slices.Sorted(maps.Keys(b.pending)) {
		out = append(out, b.pending[id].params)
	}
	b.mu.Unlock()
	return out
}

// Launch returns the stored launch parameters of a pending request.
func (b *Broker) Launch(ctx context.Context, id uint64) (model.LaunchParams, error) {
	raw, err := b.launches.Get(ctx, launchKey(id))
	if errors.Is(err, store.ErrNotFound) {
		return model.LaunchParams{}, model.ErrApprovalNotFound
	}
	if err != nil {
		return model.LaunchParams{}, err
	}
	var params model.LaunchParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return model.LaunchParams{}, fmt.Errorf("corrupt launch params: %w", err)
	}
	return params, nil
}

func (b *Broker) storeLaunch(ctx context.Context, params model.LaunchParams) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode launch params: %w", err)
	}
	return b.launches.Set(ctx, launchKey(params.ApprovalID), raw)
}

func (b *Broker) dropLaunch(id uint64) {
	if err := b.launches.Delete(context.Background(), launchKey(id)); err != nil {
		log.WithError(err).WithField("approvalId", id).Warn("failed to drop launch params")
	}
}

func launchKey(id uint64) string {
	return launchKeyPrefix + strconv.FormatUint(id, 10)
}
