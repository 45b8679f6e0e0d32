package negotiation

import (
	"strings"
	"testing"
)

func openTestNegotiation(t *testing.T) (*State, *Negotiation) {
	t.Helper()
	st := NewState()
	n := NewNegotiation(testItem(), "buyer_001", 442, 312, "hi", testTime)
	if err := Open(st, n); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return st, n
}

func TestNewID(t *testing.T) {
	id := NewID("42")
	if !strings.HasPrefix(id, "neg_42_") {
		t.Errorf("expected neg_42_ prefix, got %s", id)
	}
	if id == NewID("42") {
		t.Error("expected unique ids for the same item")
	}
}

func TestNewNegotiation(t *testing.T) {
	n := NewNegotiation(testItem(), "buyer_001", 442, 312, "hello", testTime)

	if n.Round != 1 {
		t.Errorf("expected round 1, got %d", n.Round)
	}
	if n.Status != StatusActive {
		t.Errorf("expected status active, got %s", n.Status)
	}
	if n.CurrentOffer != 312 {
		t.Errorf("expected current offer 312, got %d", n.CurrentOffer)
	}
	if len(n.History) != 1 {
		t.Fatalf("expected 1 history event, got %d", len(n.History))
	}
	e := n.History[0]
	if e.From != RoleBuyer || e.Action != ActionInitialOffer || e.Amount != 312 {
		t.Errorf("unexpected opening event: %+v", e)
	}
}

func TestOpenSetsAgentsNegotiating(t *testing.T) {
	st, _ := openTestNegotiation(t)

	if st.AgentStatus[RoleBuyer] != AgentNegotiating {
		t.Error("buyer should be negotiating")
	}
	if st.AgentStatus[RoleSeller] != AgentNegotiating {
		t.Error("seller should be negotiating")
	}
}

func TestOpenDuplicate(t *testing.T) {
	st, n := openTestNegotiation(t)

	if err := Open(st, n); err == nil {
		t.Error("expected error opening an already active negotiation")
	}

	done := n.clone()
	done.Status = StatusWalkedAway
	st2 := NewState()
	st2.Completed = append(st2.Completed, done)
	if err := Open(st2, n); err == nil {
		t.Error("expected error reopening a completed negotiation")
	}
}

func TestApplySellerCounterReusesRound(t *testing.T) {
	st, n := openTestNegotiation(t)

	applied, err := ApplySellerMove(st, n.ID, Move{Kind: MoveCounter, Amount: 478, Message: "counter"}, testTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied {
		t.Fatal("expected move to apply")
	}

	if n.Round != 1 {
		t.Errorf("seller counter must not advance round, got %d", n.Round)
	}
	last := n.History[len(n.History)-1]
	if last.Round != 1 || last.From != RoleSeller || last.Amount != 478 {
		t.Errorf("unexpected seller event: %+v", last)
	}
	if n.CurrentOffer != 312 {
		t.Errorf("seller counter must not change the buyer's standing offer, got %d", n.CurrentOffer)
	}
}

func TestApplyBuyerCounterAdvancesRound(t *testing.T) {
	st, n := openTestNegotiation(t)
	ApplySellerMove(st, n.ID, Move{Kind: MoveCounter, Amount: 478}, testTime)

	applied, err := ApplyBuyerMove(st, n.ID, Move{Kind: MoveCounter, Amount: 327}, testTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied {
		t.Fatal("expected move to apply")
	}

	if n.Round != 2 {
		t.Errorf("expected round 2, got %d", n.Round)
	}
	if n.CurrentOffer != 327 {
		t.Errorf("expected current offer 327, got %d", n.CurrentOffer)
	}
	last := n.History[len(n.History)-1]
	if last.Round != 2 {
		t.Errorf("expected buyer event at round 2, got %d", last.Round)
	}
}

func TestApplyBuyerMoveOutOfTurnIsNoop(t *testing.T) {
	st, n := openTestNegotiation(t)

	// Seller has not responded yet, so it is the seller's turn.
	applied, err := ApplyBuyerMove(st, n.ID, Move{Kind: MoveCounter, Amount: 327}, testTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied {
		t.Error("buyer move out of turn must be a no-op")
	}
	if len(n.History) != 1 {
		t.Errorf("history must be untouched, got %d events", len(n.History))
	}
}

func TestApplyBuyerMoveIsIdempotent(t *testing.T) {
	st, n := openTestNegotiation(t)
	ApplySellerMove(st, n.ID, Move{Kind: MoveCounter, Amount: 478}, testTime)

	mv := Move{Kind: MoveCounter, Amount: 327}
	if applied, _ := ApplyBuyerMove(st, n.ID, mv, testTime); !applied {
		t.Fatal("first application should apply")
	}
	// Re-applying the same function after a commit conflict must not
	// double-append: the turn has moved to the seller.
	if applied, _ := ApplyBuyerMove(st, n.ID, mv, testTime); applied {
		t.Error("second application must be a no-op")
	}
	if len(n.History) != 3 {
		t.Errorf("expected 3 history events, got %d", len(n.History))
	}
	if n.Round != 2 {
		t.Errorf("expected round 2, got %d", n.Round)
	}
}

func TestApplyBuyerMoveMissingNegotiation(t *testing.T) {
	st := NewState()
	applied, err := ApplyBuyerMove(st, "neg_missing", Move{Kind: MoveCounter, Amount: 100}, testTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied {
		t.Error("move on a missing negotiation must be a no-op")
	}
}

func TestBuyerCounterAboveMaxRejected(t *testing.T) {
	st, n := openTestNegotiation(t)
	ApplySellerMove(st, n.ID, Move{Kind: MoveCounter, Amount: 478}, testTime)

	if _, err := ApplyBuyerMove(st, n.ID, Move{Kind: MoveCounter, Amount: 500}, testTime); err == nil {
		t.Error("expected error for counter above buyer max")
	}
	if _, err := ApplyBuyerMove(st, n.ID, Move{Kind: MoveAccept, Amount: 500}, testTime); err == nil {
		t.Error("expected error for acceptance above buyer max")
	}
}

func TestBuyerAcceptCompletes(t *testing.T) {
	st, n := openTestNegotiation(t)
	ApplySellerMove(st, n.ID, Move{Kind: MoveCounter, Amount: 431}, testTime)

	applied, err := ApplyBuyerMove(st, n.ID, Move{Kind: MoveAccept, Amount: 431, Message: "deal"}, testTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied {
		t.Fatal("expected acceptance to apply")
	}

	if n.Status != StatusAccepted {
		t.Errorf("expected accepted, got %s", n.Status)
	}
	if n.FinalPrice != 431 {
		t.Errorf("expected final price 431, got %d", n.FinalPrice)
	}
	// The closing event is stamped one past the current round; the round
	// counter itself stays put.
	last := n.History[len(n.History)-1]
	if last.Round != n.Round+1 {
		t.Errorf("expected closing event at round %d, got %d", n.Round+1, last.Round)
	}
	if len(st.Active) != 0 {
		t.Error("accepted negotiation must leave the active set")
	}
	if len(st.Completed) != 1 {
		t.Fatal("accepted negotiation must enter the completed set")
	}
	if st.AgentStatus[RoleBuyer] != AgentIdle || st.AgentStatus[RoleSeller] != AgentIdle {
		t.Error("agents should be idle when the active set empties")
	}
}

func TestBuyerWalkAwayAndExpire(t *testing.T) {
	tests := []struct {
		name   string
		kind   MoveKind
		status Status
	}{
		{"walk away", MoveWalkAway, StatusWalkedAway},
		{"expire", MoveExpire, StatusMaxRounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, n := openTestNegotiation(t)
			ApplySellerMove(st, n.ID, Move{Kind: MoveCounter, Amount: 478}, testTime)

			applied, err := ApplyBuyerMove(st, n.ID, Move{Kind: tt.kind, Message: "bye"}, testTime)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !applied {
				t.Fatal("expected move to apply")
			}
			if n.Status != tt.status {
				t.Errorf("expected %s, got %s", tt.status, n.Status)
			}
			if n.FinalPrice != 0 {
				t.Errorf("ended negotiation must not carry a final price, got %d", n.FinalPrice)
			}
			if len(st.Active) != 0 || len(st.Completed) != 1 {
				t.Error("ended negotiation must move to the completed set")
			}
		})
	}
}

func TestSellerAcceptCompletes(t *testing.T) {
	st, n := openTestNegotiation(t)

	applied, err := ApplySellerMove(st, n.ID, Move{Kind: MoveAccept, Amount: 312, Message: "sold"}, testTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied {
		t.Fatal("expected acceptance to apply")
	}

	if n.Status != StatusAccepted {
		t.Errorf("expected accepted, got %s", n.Status)
	}
	if n.FinalPrice != 312 {
		t.Errorf("expected final price 312, got %d", n.FinalPrice)
	}
	last := n.History[len(n.History)-1]
	if last.Round != 1 {
		t.Errorf("seller acceptance reuses the current round, got %d", last.Round)
	}
	if len(st.Completed) != 1 {
		t.Error("accepted negotiation must enter the completed set")
	}
}

func TestSellerMoveOutOfTurnIsNoop(t *testing.T) {
	st, n := openTestNegotiation(t)
	ApplySellerMove(st, n.ID, Move{Kind: MoveCounter, Amount: 478}, testTime)

	// Now it is the buyer's turn.
	applied, err := ApplySellerMove(st, n.ID, Move{Kind: MoveCounter, Amount: 470}, testTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied {
		t.Error("seller move out of turn must be a no-op")
	}
	if len(n.History) != 2 {
		t.Errorf("history must be untouched, got %d events", len(n.History))
	}
}

func TestHistoryIsAppendOnly(t *testing.T) {
	st, n := openTestNegotiation(t)

	before := make([]Event, len(n.History))
	copy(before, n.History)

	ApplySellerMove(st, n.ID, Move{Kind: MoveCounter, Amount: 478}, testTime)
	ApplyBuyerMove(st, n.ID, Move{Kind: MoveCounter, Amount: 327}, testTime)

	for i, e := range before {
		if n.History[i] != e {
			t.Errorf("event %d was rewritten: had %+v, now %+v", i, e, n.History[i])
		}
	}
}

func TestMoveKindAction(t *testing.T) {
	tests := []struct {
		kind MoveKind
		want Action
	}{
		{MoveCounter, ActionCounterOffer},
		{MoveAccept, ActionAccept},
		{MoveWalkAway, ActionEnd},
		{MoveExpire, ActionEnd},
		{MoveNone, Action("")},
	}
	for _, tt := range tests {
		if got := tt.kind.Action(); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.kind, tt.want, got)
		}
	}
}
