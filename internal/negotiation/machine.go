package negotiation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MoveKind classifies what a strategy wants to do with a negotiation.
type MoveKind string

const (
	// MoveCounter puts a new amount on the table.
	MoveCounter MoveKind = "counter"
	// MoveAccept closes the negotiation at the given amount.
	MoveAccept MoveKind = "accept"
	// MoveWalkAway ends the negotiation without a deal.
	MoveWalkAway MoveKind = "walk_away"
	// MoveExpire ends the negotiation because the round limit was hit.
	MoveExpire MoveKind = "expire"
	// MoveNone means the strategy has nothing to do for this negotiation.
	MoveNone MoveKind = "none"
)

// Move is a strategy decision to be validated and applied by the machine.
type Move struct {
	Kind    MoveKind
	Amount  int
	Message string
}

// Action returns the history action a move of this kind records.
func (k MoveKind) Action() Action {
	switch k {
	case MoveCounter:
		return ActionCounterOffer
	case MoveAccept:
		return ActionAccept
	case MoveWalkAway, MoveExpire:
		return ActionEnd
	}
	return ""
}

// NewID generates a negotiation id. The item id prefix keeps ids readable in
// logs; the uuid suffix keeps them unique across concurrent buyers.
func NewID(itemID string) string {
	return fmt.Sprintf("neg_%s_%s", itemID, uuid.NewString()[:8])
}

// NewNegotiation builds the opening record for an item: round 1, active, a
// single buyer initial_offer event. The buyer's max offer is computed once
// here and never changes for the life of the negotiation.
func NewNegotiation(item Item, buyerID string, maxOffer, initialOffer int, message string, at time.Time) *Negotiation {
	return &Negotiation{
		ID:            NewID(item.ID),
		ItemID:        item.ID,
		ItemTitle:     item.Title,
		AskingPrice:   item.AskingPrice,
		BuyerID:       buyerID,
		BuyerMaxOffer: maxOffer,
		CurrentOffer:  initialOffer,
		Round:         1,
		Status:        StatusActive,
		StartedAt:     at,
		History: []Event{{
			Round:     1,
			From:      RoleBuyer,
			Action:    ActionInitialOffer,
			Amount:    initialOffer,
			Message:   message,
			Timestamp: at,
		}},
	}
}

// Open registers a freshly created negotiation in the active set.
func Open(st *State, n *Negotiation) error {
	if _, ok := st.Active[n.ID]; ok {
		return fmt.Errorf("negotiation %s already open", n.ID)
	}
	for _, done := range st.Completed {
		if done.ID == n.ID {
			return fmt.Errorf("negotiation %s already completed", n.ID)
		}
	}
	if err := n.Validate(); err != nil {
		return err
	}
	st.Active[n.ID] = n
	st.AgentStatus[RoleBuyer] = AgentNegotiating
	st.AgentStatus[RoleSeller] = AgentNegotiating
	return nil
}

// ApplyBuyerMove applies a buyer decision to the negotiation with the given
// id. It returns false without touching the state when the negotiation is no
// longer active or it is not the buyer's turn, so re-applying an already
// committed transaction function is a no-op rather than a double append.
func ApplyBuyerMove(st *State, id string, mv Move, at time.Time) (bool, error) {
	n, ok := st.Active[id]
	if !ok {
		return false, nil
	}
	if n.Turn() != RoleBuyer {
		return false, nil
	}

	switch mv.Kind {
	case MoveNone:
		return false, nil
	case MoveCounter:
		if mv.Amount > n.BuyerMaxOffer {
			return false, fmt.Errorf("negotiation %s: buyer counter %d exceeds max offer %d", id, mv.Amount, n.BuyerMaxOffer)
		}
		n.Round++
		n.CurrentOffer = mv.Amount
		n.History = append(n.History, Event{
			Round:     n.Round,
			From:      RoleBuyer,
			Action:    ActionCounterOffer,
			Amount:    mv.Amount,
			Message:   mv.Message,
			Timestamp: at,
		})
	case MoveAccept:
		if mv.Amount > n.BuyerMaxOffer {
			return false, fmt.Errorf("negotiation %s: acceptance at %d exceeds buyer max %d", id, mv.Amount, n.BuyerMaxOffer)
		}
		n.Status = StatusAccepted
		n.FinalPrice = mv.Amount
		n.History = append(n.History, Event{
			Round:     n.Round + 1,
			From:      RoleBuyer,
			Action:    ActionAccept,
			Amount:    mv.Amount,
			Message:   mv.Message,
			Timestamp: at,
		})
		complete(st, id)
	case MoveWalkAway, MoveExpire:
		if mv.Kind == MoveWalkAway {
			n.Status = StatusWalkedAway
		} else {
			n.Status = StatusMaxRounds
		}
		n.History = append(n.History, Event{
			Round:     n.Round + 1,
			From:      RoleBuyer,
			Action:    ActionEnd,
			Message:   mv.Message,
			Timestamp: at,
		})
		complete(st, id)
	default:
		return false, fmt.Errorf("negotiation %s: unknown buyer move %q", id, mv.Kind)
	}
	return true, nil
}

// ApplySellerMove applies a seller decision. Seller events reuse the current
// round number: only a subsequent buyer counter advances Round. A seller
// acceptance closes the negotiation at the buyer's standing offer.
func ApplySellerMove(st *State, id string, mv Move, at time.Time) (bool, error) {
	n, ok := st.Active[id]
	if !ok {
		return false, nil
	}
	if n.Turn() != RoleSeller {
		return false, nil
	}
	// A buyer accept or end resolves the negotiation from the other side;
	// the seller must not answer it.
	if e, ok := n.LatestFrom(RoleBuyer); ok && (e.Action == ActionAccept || e.Action == ActionEnd) {
		return false, nil
	}

	switch mv.Kind {
	case MoveNone:
		return false, nil
	case MoveAccept:
		n.Status = StatusAccepted
		n.FinalPrice = mv.Amount
		n.History = append(n.History, Event{
			Round:     n.Round,
			From:      RoleSeller,
			Action:    ActionAccept,
			Amount:    mv.Amount,
			Message:   mv.Message,
			Timestamp: at,
		})
		complete(st, id)
	case MoveCounter:
		n.History = append(n.History, Event{
			Round:     n.Round,
			From:      RoleSeller,
			Action:    ActionCounterOffer,
			Amount:    mv.Amount,
			Message:   mv.Message,
			Timestamp: at,
		})
	default:
		return false, fmt.Errorf("negotiation %s: unknown seller move %q", id, mv.Kind)
	}
	return true, nil
}

// complete moves a terminal negotiation out of the active set in the same
// transaction that set its status, and refreshes agent availability.
func complete(st *State, id string) {
	n := st.Active[id]
	delete(st.Active, id)
	st.Completed = append(st.Completed, n)

	if len(st.Active) == 0 {
		st.AgentStatus[RoleBuyer] = AgentIdle
		st.AgentStatus[RoleSeller] = AgentIdle
	}
}
