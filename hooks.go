package uppbod

import (
	"sync"

	"github.com/agentstation/uppbod/pkg/differ"
	"github.com/agentstation/uppbod/pkg/listings"
)

// Hook function types for store events
type (
	// ListingAddedHook is called when a new identity is inserted.
	ListingAddedHook func(rec listings.Record)

	// ListingUpdatedHook is called when a stored record's values change.
	ListingUpdatedHook func(update differ.RecordUpdate)

	// ListingCancelledHook is called when a vanished listing is marked cancelled.
	ListingCancelledHook func(update differ.RecordUpdate)
)

// hooks manages event callbacks for store changes
type hooks struct {
	mu          sync.RWMutex
	onAdded     []ListingAddedHook
	onUpdated   []ListingUpdatedHook
	onCancelled []ListingCancelledHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnListingAdded registers a callback for inserted records.
func (c *Client) OnListingAdded(fn ListingAddedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onAdded = append(c.hooks.onAdded, fn)
}

// OnListingUpdated registers a callback for updated records.
func (c *Client) OnListingUpdated(fn ListingUpdatedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onUpdated = append(c.hooks.onUpdated, fn)
}

// OnListingCancelled registers a callback for cancelled records.
func (c *Client) OnListingCancelled(fn ListingCancelledHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onCancelled = append(c.hooks.onCancelled, fn)
}

// trigger fires hooks for everything in cs, in changeset order.
func (h *hooks) trigger(cs *differ.Changeset) {
	if cs == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, rec := range cs.Added {
		for _, hook := range h.onAdded {
			hook(rec)
		}
	}
	for _, u := range cs.Updated {
		for _, hook := range h.onUpdated {
			hook(u)
		}
	}
	for _, u := range cs.Cancelled {
		for _, hook := range h.onCancelled {
			hook(u)
		}
	}
}
