package agent

import (
	"context"
	"errors"
	"time"

	"github.com/mbourmaud/souk/internal/logger"
	"github.com/mbourmaud/souk/internal/negotiation"
	"github.com/mbourmaud/souk/internal/store"
	"github.com/mbourmaud/souk/internal/strategy"
)

// Seller is the selling agent's scheduler. It watches the shared store for
// negotiations over its inventory and answers buyer offers on its own cadence.
type Seller struct {
	id     string
	strat  *strategy.Seller
	store  store.Store
	log    *logger.Logger
	poll   time.Duration
	events Observer
	now    func() time.Time

	// stale negotiation ids already warned about, to keep the log quiet
	warned map[string]bool
}

// SellerOptions configures a Seller. Store and Strategy are required.
type SellerOptions struct {
	ID           string
	Strategy     *strategy.Seller
	Store        store.Store
	Log          *logger.Logger
	PollInterval time.Duration
	Events       Observer
	Now          func() time.Time
}

// NewSeller builds the seller agent, filling in defaults for optional knobs.
func NewSeller(opts SellerOptions) *Seller {
	s := &Seller{
		id:     opts.ID,
		strat:  opts.Strategy,
		store:  opts.Store,
		log:    opts.Log,
		poll:   opts.PollInterval,
		events: opts.Events,
		now:    opts.Now,
		warned: make(map[string]bool),
	}
	if s.id == "" {
		s.id = "seller_001"
	}
	if s.log == nil {
		s.log = logger.WithField("agent", s.id)
	}
	if s.poll <= 0 {
		s.poll = 3 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Run polls the store and responds to buyer offers until every inventory item
// has an accepted deal or the context is cancelled.
func (s *Seller) Run(ctx context.Context) error {
	s.log.Info("seller %s starting, managing %d items", s.id, len(s.strat.Inventory))

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("seller %s shutting down", s.id)
			return nil
		case <-ticker.C:
			done, err := s.tick(ctx)
			if err != nil {
				return err
			}
			if done {
				s.log.Info("all items sold")
				return nil
			}
		}
	}
}

// tick answers every negotiation where it is the seller's turn, then reports
// done when the whole inventory has sold.
func (s *Seller) tick(ctx context.Context) (bool, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		s.log.Warn("snapshot failed: %v", err)
		return false, nil
	}

	for id, n := range snap.Active {
		if !s.strat.Owns(n.ItemID) {
			if !s.warned[id] {
				s.log.Warn("negotiation %s references unknown item %s, ignoring", id, n.ItemID)
				s.warned[id] = true
			}
			continue
		}
		if n.Turn() != negotiation.RoleSeller {
			continue
		}
		if err := s.advance(ctx, id); err != nil {
			if errors.Is(err, store.ErrConflict) {
				s.log.Warn("negotiation %s: commit conflict, will retry next tick", id)
				continue
			}
			return false, err
		}
	}

	final, err := s.store.Snapshot(ctx)
	if err != nil {
		s.log.Warn("snapshot failed: %v", err)
		return false, nil
	}
	return len(s.strat.SoldItems(final)) == len(s.strat.Inventory), nil
}

// advance runs one transaction for a negotiation. Like the buyer's, the
// decision happens inside the transaction function so retries and duplicate
// applications are harmless.
func (s *Seller) advance(ctx context.Context, id string) error {
	var tr *Transition
	_, err := s.store.Transact(ctx, func(st *negotiation.State) error {
		tr = nil
		n, ok := st.Active[id]
		if !ok || n.Turn() != negotiation.RoleSeller {
			return nil
		}

		mv := s.strat.Decide(n)
		at := s.now()
		applied, err := negotiation.ApplySellerMove(st, id, mv, at)
		if err != nil || !applied {
			return err
		}
		tr = &Transition{
			Agent:         negotiation.RoleSeller,
			NegotiationID: id,
			ItemTitle:     n.ItemTitle,
			Action:        mv.Kind.Action(),
			Amount:        mv.Amount,
			Message:       mv.Message,
			Round:         n.Round,
			Status:        n.Status,
			Timestamp:     at,
		}
		return nil
	})
	if err != nil {
		return err
	}
	if tr != nil {
		s.report(ctx, *tr)
	}
	return nil
}

func (s *Seller) report(ctx context.Context, tr Transition) {
	if err := s.store.Publish(ctx, store.ActivityEntry{
		Agent:         string(tr.Agent),
		NegotiationID: tr.NegotiationID,
		ItemTitle:     tr.ItemTitle,
		Action:        string(tr.Action),
		Amount:        tr.Amount,
		Message:       tr.Message,
		Timestamp:     tr.Timestamp,
	}); err != nil {
		s.log.Debug("activity publish failed: %v", err)
	}
	if s.events != nil {
		s.events.Dispatch(tr)
	}

	switch tr.Action {
	case negotiation.ActionCounterOffer:
		s.log.Info("countered $%d for %s (round %d)", tr.Amount, tr.ItemTitle, tr.Round)
	case negotiation.ActionAccept:
		s.log.Info("accepted $%d for %s", tr.Amount, tr.ItemTitle)
	}
}
