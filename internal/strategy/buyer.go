// Package strategy holds the pure pricing deciders for both sides of a
// negotiation. Deciders read negotiation state plus agent-private parameters
// and produce a Move; they never touch the store themselves. All randomness
// flows through an injected *rand.Rand so tests can pin exact outcomes.
package strategy

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mbourmaud/souk/internal/negotiation"
)

// Buyer computes offers from a per-category price ceiling table and an
// overall budget.
type Buyer struct {
	Budget          int
	CategoryLimits  map[string]float64
	DefaultLimit    float64
	InitialOfferPct float64
	IncrementPct    float64
	MaxRounds       int

	rng *rand.Rand
}

// BuyerParams configures a Buyer. Fractions are of the asking price.
type BuyerParams struct {
	Budget          int
	CategoryLimits  map[string]float64
	DefaultLimit    float64
	InitialOfferPct float64
	IncrementPct    float64
	MaxRounds       int
}

// NewBuyer validates the parameter table up front; a bad fraction in the
// category map should fail at construction, not mid-negotiation.
func NewBuyer(p BuyerParams, rng *rand.Rand) (*Buyer, error) {
	if p.Budget <= 0 {
		return nil, fmt.Errorf("buyer budget must be positive, got %d", p.Budget)
	}
	if p.DefaultLimit <= 0 || p.DefaultLimit > 1 {
		return nil, fmt.Errorf("default category limit %.2f outside (0,1]", p.DefaultLimit)
	}
	for cat, frac := range p.CategoryLimits {
		if frac <= 0 || frac > 1 {
			return nil, fmt.Errorf("category %q limit %.2f outside (0,1]", cat, frac)
		}
	}
	if p.InitialOfferPct <= 0 || p.InitialOfferPct > 1 {
		return nil, fmt.Errorf("initial offer fraction %.2f outside (0,1]", p.InitialOfferPct)
	}
	if p.IncrementPct <= 0 {
		return nil, fmt.Errorf("increment fraction must be positive, got %.2f", p.IncrementPct)
	}
	if p.MaxRounds < 1 {
		return nil, fmt.Errorf("max rounds must be at least 1, got %d", p.MaxRounds)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Buyer{
		Budget:          p.Budget,
		CategoryLimits:  p.CategoryLimits,
		DefaultLimit:    p.DefaultLimit,
		InitialOfferPct: p.InitialOfferPct,
		IncrementPct:    p.IncrementPct,
		MaxRounds:       p.MaxRounds,
		rng:             rng,
	}, nil
}

func (b *Buyer) categoryLimit(category string) float64 {
	if frac, ok := b.CategoryLimits[category]; ok {
		return frac
	}
	return b.DefaultLimit
}

// MaxOffer is the most the buyer will ever pay for an item: the category
// fraction of the asking price, truncated, clamped to the overall budget.
func (b *Buyer) MaxOffer(item negotiation.Item) int {
	offer := int(float64(item.AskingPrice) * b.categoryLimit(item.Category))
	if offer > b.Budget {
		return b.Budget
	}
	return offer
}

// InitialOffer is the conservative opening bid.
func (b *Buyer) InitialOffer(item negotiation.Item) int {
	return int(float64(item.AskingPrice) * b.InitialOfferPct)
}

// AppraisalKind is the buyer's pre-negotiation decision for an item.
type AppraisalKind int

const (
	// AppraiseNegotiate means the item warrants an opening offer.
	AppraiseNegotiate AppraisalKind = iota
	// AppraiseBuyAtAsking means the asking price is already within the max
	// offer; no negotiation is needed.
	AppraiseBuyAtAsking
	// AppraiseDecline means even the opening offer would exceed the max.
	AppraiseDecline
)

// Appraisal is the result of sizing up a listing before negotiating.
type Appraisal struct {
	Kind         AppraisalKind
	MaxOffer     int
	InitialOffer int
}

// Appraise decides whether to open a negotiation for an item.
func (b *Buyer) Appraise(item negotiation.Item) Appraisal {
	maxOffer := b.MaxOffer(item)
	initial := b.InitialOffer(item)
	switch {
	case item.AskingPrice <= maxOffer:
		return Appraisal{Kind: AppraiseBuyAtAsking, MaxOffer: maxOffer, InitialOffer: initial}
	case initial > maxOffer:
		return Appraisal{Kind: AppraiseDecline, MaxOffer: maxOffer, InitialOffer: initial}
	default:
		return Appraisal{Kind: AppraiseNegotiate, MaxOffer: maxOffer, InitialOffer: initial}
	}
}

// NextOffer escalates the standing offer by the increment fraction, saturating
// at the negotiation's fixed max offer.
func (b *Buyer) NextOffer(current, maxOffer int) int {
	offer := int(float64(current) * (1 + b.IncrementPct))
	if offer > maxOffer {
		return maxOffer
	}
	return offer
}

// Decide computes the buyer's move for a negotiation where it is the buyer's
// turn. Priority order matters: the round limit is checked before anything
// else, and acceptance of an affordable counter beats further escalation.
func (b *Buyer) Decide(n *negotiation.Negotiation) negotiation.Move {
	if n.Round >= b.MaxRounds {
		return negotiation.Move{
			Kind:    negotiation.MoveExpire,
			Message: "I think we're too far apart on price. Thanks for negotiating with me.",
		}
	}

	sellerCounter := n.SellerCounter()
	newOffer := b.NextOffer(n.CurrentOffer, n.BuyerMaxOffer)

	if sellerCounter <= n.BuyerMaxOffer {
		return negotiation.Move{
			Kind:    negotiation.MoveAccept,
			Amount:  sellerCounter,
			Message: fmt.Sprintf("Deal! I'll take it for $%d. When can we complete the transaction?", sellerCounter),
		}
	}
	if newOffer >= n.BuyerMaxOffer && sellerCounter > n.BuyerMaxOffer {
		return negotiation.Move{
			Kind:    negotiation.MoveWalkAway,
			Message: "Thanks for your time, but I can't meet that price. Good luck with the sale!",
		}
	}
	return negotiation.Move{
		Kind:    negotiation.MoveCounter,
		Amount:  newOffer,
		Message: buyerCounterMessage(b.rng, newOffer),
	}
}

// OpeningMessage is the text attached to the initial offer event.
func (b *Buyer) OpeningMessage(item negotiation.Item, offer int) string {
	return fmt.Sprintf("Hi! I'm interested in your %s. Would you consider $%d?", item.Title, offer)
}
