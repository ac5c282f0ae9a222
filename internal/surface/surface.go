// Package surface hosts the human decision surfaces of pending approvals.
package surface

import (
	"context"

	"github.com/AlexZinkM/wallet-agent/internal/model"
)

// Host renders one decision surface per approval request.
type Host interface {
	Open(ctx context.Context, params model.LaunchParams) (Surface, error)
}

// Surface is a single rendered approval request.
// Done is closed exactly once when the surface is gone, whoever closed it.
type Surface interface {
	Done() <-chan struct{}
	Close()
}

// Decider settles approvals on behalf of the surfaces.
type Decider interface {
	Approve(ctx context.Context, id uint64, password []byte) error
	Reject(id uint64)
}
