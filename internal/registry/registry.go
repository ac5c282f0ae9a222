// Package registry tracks which origins were granted access to which address.
package registry

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/wallet-agent/internal/common"
	"github.com/AlexZinkM/wallet-agent/internal/model"
	"github.com/AlexZinkM/wallet-agent/internal/store"

	log "github.com/sirupsen/logrus"
)

// Registry is the in-memory cache of connectedSites, written through to the vault.
// Queries block until Hydrate has loaded the persisted state.
type Registry struct {
	vault *store.Vault

	ready    chan struct{}
	readyMux sync.Mutex
	hydrated bool

	mu    sync.RWMutex
	sites map[string]model.ConnectionGrant

	// serializes grant/revoke so every write persists the full latest map
	writeMu sync.Mutex

	now func() time.Time
}

func New(vault *store.Vault) *Registry {
	return &Registry{
		vault: vault,
		ready: make(chan struct{}),
		sites: make(map[string]model.ConnectionGrant),
		now:   time.Now,
	}
}

// Hydrate loads the persisted grants. It must complete before any query is answered;
// calling it again after success is a no-op.
func (r *Registry) Hydrate(ctx context.Context) error {
	r.readyMux.Lock()
	defer r.readyMux.Unlock()
	if r.hydrated {
		return nil
	}

	sites, err := r.vault.ConnectedSites(ctx)
	if err != nil {
		return fmt.Errorf("failed to load connected sites: %w", err)
	}

	r.mu.Lock()
	r.sites = sites
	r.mu.Unlock()

	r.hydrated = true
	close(r.ready)
	log.WithField("sites", len(sites)).Debug("connection registry hydrated")
	return nil
}

func (r *Registry) wait(ctx context.Context) error {
	select {
	case <-r.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", model.ErrNotInitialized, ctx.Err())
	}
}

// IsConnected returns the live grant for origin, or nil when there is none.
func (r *Registry) IsConnected(ctx context.Context, origin string) (*model.ConnectionGrant, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	grant, ok := r.sites[origin]
	if !ok || !grant.Connected {
		return nil, nil
	}
	return &grant, nil
}

// Grant records (or overwrites) the grant for origin. The grant is durable when Grant returns.
func (r *Registry) Grant(ctx context.Context, origin, address string) (model.ConnectionGrant, error) {
	if err := r.wait(ctx); err != nil {
		return model.ConnectionGrant{}, err
	}
	grant := model.ConnectionGrant{
		Origin:      origin,
		Address:     address,
		Connected:   true,
		ConnectedAt: r.now().UTC(),
	}
	err := r.update(ctx, func(sites map[string]model.ConnectionGrant) bool {
		sites[origin] = grant
		return true
	})
	if err != nil {
		return model.ConnectionGrant{}, err
	}
	log.WithFields(log.Fields{"origin": origin, "address": common.TruncateAddress(address)}).Info("site connected")
	return grant, nil
}

// Revoke removes the grant for origin. Revoking an unknown origin is a no-op.
func (r *Registry) Revoke(ctx context.Context, origin string) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	removed := false
	err := r.update(ctx, func(sites map[string]model.ConnectionGrant) bool {
		if _, ok := sites[origin]; !ok {
			return false
		}
		delete(sites, origin)
		removed = true
		return true
	})
	if err == nil && removed {
		log.WithFields(log.Fields{"origin": origin}).Info("site disconnected")
	}
	return err
}

// RevokeAll drops every grant.
func (r *Registry) RevokeAll(ctx context.Context) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.update(ctx, func(sites map[string]model.ConnectionGrant) bool {
		clear(sites)
		return true
	})
}

// RevokeAddress drops every grant pointing at address, e.g. after the account was deleted.
func (r *Registry) RevokeAddress(ctx context.Context, address string) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.update(ctx, func(sites map[string]model.ConnectionGrant) bool {
		changed := false
		for origin, g := range sites {
			if g.Address == address {
				delete(sites, origin)
				changed = true
			}
		}
		return changed
	})
}

// List returns all grants ordered by origin.
func (r *Registry) List(ctx context.Context) ([]model.ConnectionGrant, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	grants := slices.Collect(maps.Values(r.sites))
	slices.SortFunc(grants, func(a, b model.ConnectionGrant) int {
		return strings.Compare(a.Origin, b.Origin)
	})
	return grants, nil
}

// update applies fn to a copy of the map, persists the copy and only then publishes it.
func (r *Registry) update(ctx context.Context, fn func(map[string]model.ConnectionGrant) bool) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.RLock()
	next := maps.Clone(r.sites)
	r.mu.RUnlock()
	if next == nil {
		next = make(map[string]model.ConnectionGrant)
	}

	if !fn(next) {
		return nil
	}
	if err := r.vault.SetConnectedSites(ctx, next); err != nil {
		return fmt.Errorf("failed to persist connected sites: %w", err)
	}

	r.mu.Lock()
	r.sites = next
	r.mu.Unlock()
	return nil
}
