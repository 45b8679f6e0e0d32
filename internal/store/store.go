// Package store provides the shared negotiation state with atomic
// read-modify-write transactions. The store is the only coordination medium
// between agents: every decision-relevant read and its resulting write happen
// inside one Transact call, so concurrent agents can never lose each other's
// updates.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/mbourmaud/souk/internal/negotiation"
)

// ErrConflict is returned when a transaction keeps colliding with concurrent
// commits and the bounded retry budget runs out. Callers should treat it as
// transient and retry on their next tick.
var ErrConflict = errors.New("store: transaction conflict retries exhausted")

// Store is the negotiation coordination contract.
//
// Transact applies fn to the current state and commits the result atomically.
// Conflicting concurrent calls are serialized, never silently lost; on a
// commit conflict the implementation re-runs fn against the latest state, so
// fn must be safe to call more than once and must no-op when its
// preconditions no longer hold (the turn-derivation rule makes this natural).
// Transactions touching distinct negotiations may interleave freely;
// transactions on the same negotiation are linearized.
type Store interface {
	// Snapshot returns a consistent point-in-time copy of the state.
	// An absent or unreadable backing record yields the default empty state.
	Snapshot(ctx context.Context) (*negotiation.State, error)

	// Transact atomically applies fn and returns the committed state.
	Transact(ctx context.Context, fn func(*negotiation.State) error) (*negotiation.State, error)

	// Publish records an activity entry for observers (monitors, log
	// surfaces). Activity is advisory; it is not part of the atomicity
	// contract.
	Publish(ctx context.Context, entry ActivityEntry) error

	// Reset reinitializes the state to the default empty record.
	Reset(ctx context.Context) error

	Close() error
}

// ActivityEntry is one observable transition, mirroring the event that a
// transaction appended to a negotiation's history.
type ActivityEntry struct {
	Agent         string    `json:"agent"`
	NegotiationID string    `json:"negotiation_id"`
	ItemTitle     string    `json:"item_title"`
	Action        string    `json:"action"`
	Amount        int       `json:"amount,omitempty"`
	Message       string    `json:"message,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
