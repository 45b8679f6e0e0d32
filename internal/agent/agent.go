// Package agent contains the buyer and seller scheduler loops. Each agent
// polls the shared store on its own cadence, derives whose turn it is per
// negotiation, and applies at most one transaction per due negotiation per
// tick. Agents never call each other; the store is the only channel.
package agent

import (
	"time"

	"github.com/mbourmaud/souk/internal/negotiation"
)

// Transition describes one applied state change, for observers.
type Transition struct {
	Agent         negotiation.Role
	NegotiationID string
	ItemTitle     string
	Action        negotiation.Action
	Amount        int
	Message       string
	Round         int
	Status        negotiation.Status
	Timestamp     time.Time
}

// Observer receives transitions as they are committed. The event dispatcher
// satisfies this; a nil observer is fine.
type Observer interface {
	Dispatch(t Transition) bool
}
