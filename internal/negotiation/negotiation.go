// Package negotiation defines the shared negotiation record and the state
// machine that advances it. A negotiation is only ever mutated through the
// store's transaction boundary; everything in this package is pure data
// manipulation so it can be exercised inside a transaction function.
package negotiation

import (
	"fmt"
	"time"
)

// Role identifies which side of the table authored an event.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Action is the kind of move recorded in a negotiation's history.
type Action string

const (
	ActionInitialOffer Action = "initial_offer"
	ActionCounterOffer Action = "counter_offer"
	ActionAccept       Action = "accept"
	ActionEnd          Action = "end"
)

// Status represents the lifecycle state of a negotiation.
// All statuses except StatusActive are terminal and sticky.
type Status string

const (
	StatusActive     Status = "active"
	StatusAccepted   Status = "accepted"
	StatusWalkedAway Status = "walked_away"
	StatusMaxRounds  Status = "max_rounds_reached"
)

// AgentState is the coarse availability flag kept per role in the store.
type AgentState string

const (
	AgentIdle        AgentState = "idle"
	AgentNegotiating AgentState = "negotiating"
)

// Item is a marketplace listing as seen by the buyer. Seller-private
// parameters (minimum price, urgency) live in the seller's inventory
// configuration, not here.
type Item struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	AskingPrice int    `json:"asking_price"`
	Category    string `json:"category"`
}

// Event is a single append-only history entry. Amounts are whole currency
// units; timestamps serialize as RFC 3339 strings.
type Event struct {
	Round     int       `json:"round"`
	From      Role      `json:"from"`
	Action    Action    `json:"action"`
	Amount    int       `json:"amount,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Negotiation is the evolving record of one buyer-seller price discussion.
//
// Round counts buyer counter-offers only: seller responses reuse the current
// round number and do not advance it. This asymmetry is inherited behavior,
// not a bug; see the machine tests.
type Negotiation struct {
	ID            string    `json:"id"`
	ItemID        string    `json:"item_id"`
	ItemTitle     string    `json:"item_title"`
	AskingPrice   int       `json:"asking_price"`
	BuyerID       string    `json:"buyer_id"`
	BuyerMaxOffer int       `json:"buyer_max_offer"`
	CurrentOffer  int       `json:"current_offer"`
	Round         int       `json:"round"`
	Status        Status    `json:"status"`
	History       []Event   `json:"history"`
	FinalPrice    int       `json:"final_price,omitempty"`
	StartedAt     time.Time `json:"started_at"`
}

// State is the complete shared store record. It is the unit of atomicity:
// transaction functions receive a State, mutate it, and the store commits
// the whole record or nothing.
type State struct {
	Active      map[string]*Negotiation `json:"active_negotiations"`
	Completed   []*Negotiation          `json:"completed_negotiations"`
	AgentStatus map[Role]AgentState     `json:"agent_status"`
}

// NewState returns the default empty store record, used both for fresh
// simulations and as the recovery value when backing storage is unreadable.
func NewState() *State {
	return &State{
		Active:      make(map[string]*Negotiation),
		Completed:   make([]*Negotiation, 0),
		AgentStatus: make(map[Role]AgentState),
	}
}

// Clone returns a deep copy of the state. Snapshots hand out clones so
// readers can never alias the committed record.
func (s *State) Clone() *State {
	c := NewState()
	for id, n := range s.Active {
		c.Active[id] = n.clone()
	}
	for _, n := range s.Completed {
		c.Completed = append(c.Completed, n.clone())
	}
	for role, st := range s.AgentStatus {
		c.AgentStatus[role] = st
	}
	return c
}

func (n *Negotiation) clone() *Negotiation {
	c := *n
	c.History = make([]Event, len(n.History))
	copy(c.History, n.History)
	return &c
}

// EventsFrom counts history entries authored by the given role.
func (n *Negotiation) EventsFrom(role Role) int {
	count := 0
	for _, e := range n.History {
		if e.From == role {
			count++
		}
	}
	return count
}

// LatestFrom returns the most recent event authored by the given role.
func (n *Negotiation) LatestFrom(role Role) (Event, bool) {
	for i := len(n.History) - 1; i >= 0; i-- {
		if n.History[i].From == role {
			return n.History[i], true
		}
	}
	return Event{}, false
}

// Turn derives whose move it is. The side that must respond is the one whose
// counterpart has acted since its own last action. The buyer authors the
// opening event, so equal counts mean the seller has answered and the buyer
// owes a response.
func (n *Negotiation) Turn() Role {
	if n.EventsFrom(RoleBuyer) > n.EventsFrom(RoleSeller) {
		return RoleSeller
	}
	return RoleBuyer
}

// Terminal reports whether the negotiation has reached a sticky end state.
func (n *Negotiation) Terminal() bool {
	return n.Status != StatusActive
}

// SellerCounter returns the amount of the seller's latest counter, falling
// back to the asking price when the seller has not responded yet.
func (n *Negotiation) SellerCounter() int {
	if e, ok := n.LatestFrom(RoleSeller); ok && e.Amount > 0 {
		return e.Amount
	}
	return n.AskingPrice
}

// Validate checks the structural invariants of a negotiation record.
// A violation means the record was corrupted outside the state machine;
// callers must treat it as fatal rather than attempt repair.
func (n *Negotiation) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("negotiation has empty id")
	}
	if n.Round < 1 {
		return fmt.Errorf("negotiation %s: round %d < 1", n.ID, n.Round)
	}
	if len(n.History) == 0 {
		return fmt.Errorf("negotiation %s: empty history", n.ID)
	}
	first := n.History[0]
	if first.From != RoleBuyer || first.Action != ActionInitialOffer {
		return fmt.Errorf("negotiation %s: history must open with a buyer initial_offer", n.ID)
	}
	prev := 0
	for i, e := range n.History {
		if e.Round < prev {
			return fmt.Errorf("negotiation %s: event %d round %d decreases from %d", n.ID, i, e.Round, prev)
		}
		prev = e.Round
	}
	switch n.Status {
	case StatusActive, StatusWalkedAway, StatusMaxRounds:
	case StatusAccepted:
		if n.FinalPrice <= 0 {
			return fmt.Errorf("negotiation %s: accepted without final price", n.ID)
		}
		if n.FinalPrice > n.BuyerMaxOffer {
			return fmt.Errorf("negotiation %s: final price %d exceeds buyer max %d", n.ID, n.FinalPrice, n.BuyerMaxOffer)
		}
	default:
		return fmt.Errorf("negotiation %s: unknown status %q", n.ID, n.Status)
	}
	return nil
}

// Validate checks every negotiation in the state.
func (s *State) Validate() error {
	for id, n := range s.Active {
		if n.ID != id {
			return fmt.Errorf("active negotiation keyed %s carries id %s", id, n.ID)
		}
		if n.Terminal() {
			return fmt.Errorf("negotiation %s is terminal but still active", id)
		}
		if err := n.Validate(); err != nil {
			return err
		}
	}
	for _, n := range s.Completed {
		if !n.Terminal() {
			return fmt.Errorf("negotiation %s is completed but still marked active", n.ID)
		}
		if _, ok := s.Active[n.ID]; ok {
			return fmt.Errorf("negotiation %s present in both active and completed sets", n.ID)
		}
		if err := n.Validate(); err != nil {
			return err
		}
	}
	return nil
}
