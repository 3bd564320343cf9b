// Package feed delivers bookmark change events to the owner's live clients.
package feed

import (
	"context"

	"github.com/MrSnakeDoc/keep/internal/domain"
)

// Broker fans out events to subscribers of the same owner.
//
// Subscribers only ever receive events whose OwnerID equals the owner they
// subscribed with.
type Broker interface {
	Publish(ctx context.Context, ev domain.Event) error
	Subscribe(ctx context.Context, owner string) (*Subscription, error)
}
