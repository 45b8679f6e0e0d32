package strategy

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/mbourmaud/souk/internal/negotiation"
)

// InventoryItem is a listing with the seller-private pricing floor and the
// seller's willingness to concede on it.
type InventoryItem struct {
	ID           string
	Title        string
	AskingPrice  int
	Category     string
	MinimumPrice int
	Urgency      float64
}

// Listing returns the buyer-visible view of the item.
func (it InventoryItem) Listing() negotiation.Item {
	return negotiation.Item{
		ID:          it.ID,
		Title:       it.Title,
		AskingPrice: it.AskingPrice,
		Category:    it.Category,
	}
}

// Seller computes counter-offers from a round-scaled discount schedule.
type Seller struct {
	Inventory        map[string]InventoryItem
	InitialDiscount  float64
	DiscountPerRound float64
	DiscountCap      float64

	rng *rand.Rand
}

// SellerParams configures a Seller.
type SellerParams struct {
	Inventory        []InventoryItem
	InitialDiscount  float64
	DiscountPerRound float64
	DiscountCap      float64
}

// NewSeller validates the inventory table at construction. Urgency must sit
// in [0,1] and no minimum price may exceed its asking price.
func NewSeller(p SellerParams, rng *rand.Rand) (*Seller, error) {
	if len(p.Inventory) == 0 {
		return nil, fmt.Errorf("seller inventory is empty")
	}
	if p.DiscountCap <= 0 || p.DiscountCap >= 1 {
		return nil, fmt.Errorf("discount cap %.2f outside (0,1)", p.DiscountCap)
	}
	inv := make(map[string]InventoryItem, len(p.Inventory))
	for _, it := range p.Inventory {
		if it.ID == "" {
			return nil, fmt.Errorf("inventory item %q has empty id", it.Title)
		}
		if _, dup := inv[it.ID]; dup {
			return nil, fmt.Errorf("duplicate inventory item id %s", it.ID)
		}
		if it.AskingPrice <= 0 {
			return nil, fmt.Errorf("item %s: asking price must be positive", it.ID)
		}
		if it.MinimumPrice > it.AskingPrice {
			return nil, fmt.Errorf("item %s: minimum price %d exceeds asking price %d", it.ID, it.MinimumPrice, it.AskingPrice)
		}
		if it.Urgency < 0 || it.Urgency > 1 {
			return nil, fmt.Errorf("item %s: urgency %.2f outside [0,1]", it.ID, it.Urgency)
		}
		inv[it.ID] = it
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Seller{
		Inventory:        inv,
		InitialDiscount:  p.InitialDiscount,
		DiscountPerRound: p.DiscountPerRound,
		DiscountCap:      p.DiscountCap,
		rng:              rng,
	}, nil
}

// Owns reports whether the seller lists the given item.
func (s *Seller) Owns(itemID string) bool {
	_, ok := s.Inventory[itemID]
	return ok
}

// CounterOffer computes the seller's response amount for a negotiation. The
// discount grows with the round count and the item's urgency, capped, and the
// result never drops below the item's minimum price. When the gap to the
// buyer's offer is within 5% of asking, the seller meets in the middle.
func (s *Seller) CounterOffer(it InventoryItem, buyerOffer, round int) int {
	if s.acceptEarly(it, buyerOffer, round) {
		return buyerOffer
	}

	base := s.InitialDiscount + float64(round-1)*s.DiscountPerRound
	bonus := it.Urgency * 0.1
	total := math.Min(base+bonus, s.DiscountCap)

	counter := int(float64(it.AskingPrice) * (1 - total))
	if counter < it.MinimumPrice {
		counter = it.MinimumPrice
	}

	gap := buyerOffer - counter
	if gap < 0 {
		gap = -gap
	}
	if float64(gap) <= float64(it.AskingPrice)*0.05 {
		counter = (buyerOffer + counter) / 2
		if counter < it.MinimumPrice {
			counter = it.MinimumPrice
		}
	}
	return counter
}

// acceptEarly is the probabilistic acceptance path: an urgent seller may take
// a standing offer instead of countering. The minimum-price guard comes
// first and must stay first; an acceptance below the floor has to be
// impossible no matter how the urgency conditions evolve.
func (s *Seller) acceptEarly(it InventoryItem, buyerOffer, round int) bool {
	if buyerOffer < it.MinimumPrice {
		return false
	}
	if it.Urgency <= 0.6 || round < 2 {
		return false
	}
	return s.rng.Float64() < it.Urgency
}

// Decide computes the seller's move for a negotiation where it is the
// seller's turn. A negotiation for an item the seller no longer lists is
// left untouched (stale negotiation, reported by the caller).
func (s *Seller) Decide(n *negotiation.Negotiation) negotiation.Move {
	it, ok := s.Inventory[n.ItemID]
	if !ok {
		return negotiation.Move{Kind: negotiation.MoveNone}
	}
	if e, ok := n.LatestFrom(negotiation.RoleBuyer); ok &&
		(e.Action == negotiation.ActionAccept || e.Action == negotiation.ActionEnd) {
		return negotiation.Move{Kind: negotiation.MoveNone}
	}

	buyerOffer := n.CurrentOffer
	counter := s.CounterOffer(it, buyerOffer, n.Round)
	msg := sellerMessage(s.rng, it, buyerOffer, counter, n.Round)

	if counter == buyerOffer {
		return negotiation.Move{Kind: negotiation.MoveAccept, Amount: counter, Message: msg}
	}
	return negotiation.Move{Kind: negotiation.MoveCounter, Amount: counter, Message: msg}
}

// SoldItems returns the ids of inventory items with an accepted deal in the
// given state.
func (s *Seller) SoldItems(st *negotiation.State) map[string]bool {
	sold := make(map[string]bool)
	for _, n := range st.Completed {
		if n.Status == negotiation.StatusAccepted && s.Owns(n.ItemID) {
			sold[n.ItemID] = true
		}
	}
	return sold
}
