package strategy

import (
	"math/rand"
	"testing"

	"github.com/mbourmaud/souk/internal/negotiation"
)

func testSellerParams() SellerParams {
	return SellerParams{
		Inventory: []InventoryItem{
			{ID: "1", Title: "iPhone 12 Pro", AskingPrice: 520, Category: "Electronics", MinimumPrice: 420, Urgency: 0.3},
			{ID: "2", Title: "Vintage Leather Sofa", AskingPrice: 350, Category: "Furniture", MinimumPrice: 250, Urgency: 0.7},
			{ID: "3", Title: "Mountain Bike", AskingPrice: 850, Category: "Sports", MinimumPrice: 700, Urgency: 0.5},
		},
		InitialDiscount:  0.05,
		DiscountPerRound: 0.03,
		DiscountCap:      0.25,
	}
}

func newTestSeller(t *testing.T, seed int64) *Seller {
	t.Helper()
	s, err := NewSeller(testSellerParams(), rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewSeller failed: %v", err)
	}
	return s
}

func TestNewSellerValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SellerParams)
	}{
		{"empty inventory", func(p *SellerParams) { p.Inventory = nil }},
		{"cap at zero", func(p *SellerParams) { p.DiscountCap = 0 }},
		{"cap at one", func(p *SellerParams) { p.DiscountCap = 1 }},
		{"empty item id", func(p *SellerParams) { p.Inventory[0].ID = "" }},
		{"duplicate item id", func(p *SellerParams) { p.Inventory[1].ID = "1" }},
		{"zero asking price", func(p *SellerParams) { p.Inventory[0].AskingPrice = 0 }},
		{"minimum above asking", func(p *SellerParams) { p.Inventory[0].MinimumPrice = 999 }},
		{"urgency above one", func(p *SellerParams) { p.Inventory[0].Urgency = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testSellerParams()
			tt.mutate(&p)
			if _, err := NewSeller(p, nil); err == nil {
				t.Error("expected construction error")
			}
		})
	}
}

func TestCounterOfferSchedule(t *testing.T) {
	s := newTestSeller(t, 1)
	it := s.Inventory["1"] // urgency 0.3, no early accept possible

	// Discount grows per round plus the urgency bonus, and the counter never
	// drops below the minimum price.
	tests := []struct {
		round int
		want  int
	}{
		{1, 478},
		{2, 462},
		{3, 447},
		{4, 431},
		{5, 420}, // clamped to minimum
		{8, 420}, // capped discount, still clamped
	}

	for _, tt := range tests {
		if got := s.CounterOffer(it, 312, tt.round); got != tt.want {
			t.Errorf("round %d: expected %d, got %d", tt.round, tt.want, got)
		}
	}
}

func TestCounterOfferMeetsInMiddle(t *testing.T) {
	p := testSellerParams()
	p.Inventory[1].Urgency = 0 // keep the early-accept path out of the way
	s, _ := NewSeller(p, rand.New(rand.NewSource(1)))
	it := s.Inventory["2"] // asking 350, min 250

	// Round 1 counter is 332. A buyer offer of 300 leaves a gap of 32,
	// above the 5% threshold (17.5); 320 leaves 12 and splits the difference.
	if got := s.CounterOffer(it, 300, 1); got != 332 {
		t.Errorf("expected 332, got %d", got)
	}
	if got := s.CounterOffer(it, 320, 1); got != 326 {
		t.Errorf("expected midpoint 326, got %d", got)
	}
}

func TestAcceptEarlyNeverBelowMinimum(t *testing.T) {
	p := testSellerParams()
	p.Inventory[1].Urgency = 1.0 // would always accept if the guard failed
	s, _ := NewSeller(p, rand.New(rand.NewSource(1)))
	it := s.Inventory["2"]

	got := s.CounterOffer(it, 200, 5)
	if got == 200 {
		t.Fatal("seller accepted below the minimum price")
	}
	if got < it.MinimumPrice {
		t.Errorf("counter %d below minimum %d", got, it.MinimumPrice)
	}
}

func TestAcceptEarlyNotInRoundOne(t *testing.T) {
	p := testSellerParams()
	p.Inventory[1].Urgency = 1.0
	s, _ := NewSeller(p, rand.New(rand.NewSource(1)))
	it := s.Inventory["2"]

	if got := s.CounterOffer(it, 300, 1); got == 300 {
		t.Error("early accept must not fire in round 1")
	}
}

func TestAcceptEarlyUrgentSeller(t *testing.T) {
	// Seed 1's first Float64 is ~0.60, under the sofa's 0.7 urgency, so the
	// urgent path takes the standing offer.
	s := newTestSeller(t, 1)
	it := s.Inventory["2"]

	if got := s.CounterOffer(it, 300, 2); got != 300 {
		t.Errorf("expected early acceptance at 300, got %d", got)
	}
}

func TestSellerDecide(t *testing.T) {
	t.Run("counters a low offer", func(t *testing.T) {
		s := newTestSeller(t, 1)
		n := negotiation.NewNegotiation(
			negotiation.Item{ID: "1", Title: "iPhone 12 Pro", AskingPrice: 520, Category: "Electronics"},
			"buyer_001", 442, 312, "hi", testTime)

		mv := s.Decide(n)
		if mv.Kind != negotiation.MoveCounter {
			t.Fatalf("expected counter, got %s", mv.Kind)
		}
		if mv.Amount != 478 {
			t.Errorf("expected 478, got %d", mv.Amount)
		}
		if mv.Message == "" {
			t.Error("counter should carry a message")
		}
	})

	t.Run("accepts when the schedule meets the offer", func(t *testing.T) {
		s := newTestSeller(t, 1)
		n := negotiation.NewNegotiation(
			negotiation.Item{ID: "2", Title: "Vintage Leather Sofa", AskingPrice: 350, Category: "Furniture"},
			"buyer_001", 244, 300, "hi", testTime)
		n.Round = 2

		mv := s.Decide(n)
		if mv.Kind != negotiation.MoveAccept {
			t.Fatalf("expected accept, got %s", mv.Kind)
		}
		if mv.Amount != 300 {
			t.Errorf("expected acceptance at 300, got %d", mv.Amount)
		}
	})

	t.Run("ignores stale negotiations", func(t *testing.T) {
		s := newTestSeller(t, 1)
		n := negotiation.NewNegotiation(
			negotiation.Item{ID: "99", Title: "Ghost Item", AskingPrice: 100, Category: "Misc"},
			"buyer_001", 80, 60, "hi", testTime)

		mv := s.Decide(n)
		if mv.Kind != negotiation.MoveNone {
			t.Errorf("expected none for unknown item, got %s", mv.Kind)
		}
	})

	t.Run("ignores a buyer-closed negotiation", func(t *testing.T) {
		s := newTestSeller(t, 1)
		n := negotiation.NewNegotiation(
			negotiation.Item{ID: "1", Title: "iPhone 12 Pro", AskingPrice: 520, Category: "Electronics"},
			"buyer_001", 442, 312, "hi", testTime)
		n.History = append(n.History, negotiation.Event{
			Round: 2, From: negotiation.RoleBuyer, Action: negotiation.ActionEnd, Timestamp: testTime,
		})

		mv := s.Decide(n)
		if mv.Kind != negotiation.MoveNone {
			t.Errorf("expected none after buyer end, got %s", mv.Kind)
		}
	})
}

func TestSoldItems(t *testing.T) {
	s := newTestSeller(t, 1)
	st := negotiation.NewState()

	sold := negotiation.NewNegotiation(
		negotiation.Item{ID: "1", Title: "iPhone 12 Pro", AskingPrice: 520, Category: "Electronics"},
		"buyer_001", 442, 312, "hi", testTime)
	sold.Status = negotiation.StatusAccepted
	sold.FinalPrice = 431

	walked := negotiation.NewNegotiation(
		negotiation.Item{ID: "2", Title: "Vintage Leather Sofa", AskingPrice: 350, Category: "Furniture"},
		"buyer_001", 244, 210, "hi", testTime)
	walked.Status = negotiation.StatusWalkedAway

	st.Completed = append(st.Completed, sold, walked)

	got := s.SoldItems(st)
	if len(got) != 1 || !got["1"] {
		t.Errorf("expected only item 1 sold, got %v", got)
	}
}
