package agent

import (
	"context"
	"errors"
	"time"

	"github.com/mbourmaud/souk/internal/logger"
	"github.com/mbourmaud/souk/internal/market"
	"github.com/mbourmaud/souk/internal/negotiation"
	"github.com/mbourmaud/souk/internal/store"
	"github.com/mbourmaud/souk/internal/strategy"
)

// Buyer is the buying agent's scheduler. It opens negotiations for listings
// whose asking price exceeds its computed max offer, then polls the store and
// answers seller counters until every negotiation it created has resolved.
type Buyer struct {
	id       string
	strat    *strategy.Buyer
	store    store.Store
	source   market.Source
	log      *logger.Logger
	poll     time.Duration
	maxItems int
	events   Observer
	now      func() time.Time
}

// BuyerOptions configures a Buyer. Store and Strategy are required.
type BuyerOptions struct {
	ID           string
	Strategy     *strategy.Buyer
	Store        store.Store
	Source       market.Source
	Log          *logger.Logger
	PollInterval time.Duration
	MaxItems     int
	Events       Observer
	Now          func() time.Time
}

// NewBuyer builds the buyer agent, filling in defaults for optional knobs.
func NewBuyer(opts BuyerOptions) *Buyer {
	b := &Buyer{
		id:       opts.ID,
		strat:    opts.Strategy,
		store:    opts.Store,
		source:   opts.Source,
		log:      opts.Log,
		poll:     opts.PollInterval,
		maxItems: opts.MaxItems,
		events:   opts.Events,
		now:      opts.Now,
	}
	if b.id == "" {
		b.id = "buyer_001"
	}
	if b.log == nil {
		b.log = logger.WithField("agent", b.id)
	}
	if b.poll <= 0 {
		b.poll = 2 * time.Second
	}
	if b.maxItems <= 0 {
		b.maxItems = 2
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// Run fetches the catalog, opens negotiations, then polls until all of this
// buyer's negotiations have resolved or the context is cancelled. In-flight
// transactions always complete before the loop exits.
func (b *Buyer) Run(ctx context.Context) error {
	b.log.Info("buyer %s starting, budget $%d", b.id, b.strat.Budget)

	items := b.fetchItems(ctx)
	if len(items) > b.maxItems {
		items = items[:b.maxItems]
	}
	for _, item := range items {
		if err := b.appraise(ctx, item); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("buyer %s shutting down", b.id)
			return nil
		case <-ticker.C:
			done, err := b.tick(ctx)
			if err != nil {
				return err
			}
			if done {
				b.log.Info("all negotiations complete")
				return nil
			}
		}
	}
}

// fetchItems queries the marketplace, substituting the sample catalog when
// the service is unreachable.
func (b *Buyer) fetchItems(ctx context.Context) []negotiation.Item {
	if b.source == nil {
		return market.SampleCatalog()
	}
	items, err := b.source.Items(ctx)
	if err != nil {
		b.log.Warn("marketplace unavailable, using sample catalog: %v", err)
		return market.SampleCatalog()
	}
	return items
}

// appraise decides whether an item is worth negotiating over and opens the
// negotiation when it is.
func (b *Buyer) appraise(ctx context.Context, item negotiation.Item) error {
	ap := b.strat.Appraise(item)
	switch ap.Kind {
	case strategy.AppraiseBuyAtAsking:
		b.log.Info("item %s is already within budget, buying at asking price $%d", item.ID, item.AskingPrice)
		return nil
	case strategy.AppraiseDecline:
		b.log.Info("item %s is too expensive: max offer $%d, asking $%d", item.ID, ap.MaxOffer, item.AskingPrice)
		return nil
	}

	at := b.now()
	n := negotiation.NewNegotiation(item, b.id, ap.MaxOffer, ap.InitialOffer, b.strat.OpeningMessage(item, ap.InitialOffer), at)
	if _, err := b.store.Transact(ctx, func(st *negotiation.State) error {
		return negotiation.Open(st, n)
	}); err != nil {
		if errors.Is(err, store.ErrConflict) {
			b.log.Warn("could not open negotiation for item %s: %v", item.ID, err)
			return nil
		}
		return err
	}

	b.report(ctx, Transition{
		Agent:         negotiation.RoleBuyer,
		NegotiationID: n.ID,
		ItemTitle:     n.ItemTitle,
		Action:        negotiation.ActionInitialOffer,
		Amount:        ap.InitialOffer,
		Message:       n.History[0].Message,
		Round:         1,
		Status:        negotiation.StatusActive,
		Timestamp:     at,
	})
	b.log.Info("started negotiation for %s: asking $%d, initial offer $%d, max $%d",
		item.Title, item.AskingPrice, ap.InitialOffer, ap.MaxOffer)
	return nil
}

// tick advances every negotiation where it is the buyer's turn. It reports
// done when this buyer has no active negotiations left.
func (b *Buyer) tick(ctx context.Context) (bool, error) {
	snap, err := b.store.Snapshot(ctx)
	if err != nil {
		b.log.Warn("snapshot failed: %v", err)
		return false, nil
	}

	for id, n := range snap.Active {
		if n.BuyerID != b.id || n.Turn() != negotiation.RoleBuyer {
			continue
		}
		if err := b.advance(ctx, id); err != nil {
			if errors.Is(err, store.ErrConflict) {
				b.log.Warn("negotiation %s: commit conflict, will retry next tick", id)
				continue
			}
			return false, err
		}
	}

	final, err := b.store.Snapshot(ctx)
	if err != nil {
		b.log.Warn("snapshot failed: %v", err)
		return false, nil
	}
	for _, n := range final.Active {
		if n.BuyerID == b.id {
			return false, nil
		}
	}
	return true, nil
}

// advance runs one transaction for a negotiation. The decision is computed
// inside the transaction function against the freshest state, and the
// function no-ops when the turn has moved on, so conflict retries cannot
// double-apply a move.
func (b *Buyer) advance(ctx context.Context, id string) error {
	var tr *Transition
	_, err := b.store.Transact(ctx, func(st *negotiation.State) error {
		tr = nil
		n, ok := st.Active[id]
		if !ok || n.Turn() != negotiation.RoleBuyer {
			return nil
		}

		mv := b.strat.Decide(n)
		at := b.now()
		applied, err := negotiation.ApplyBuyerMove(st, id, mv, at)
		if err != nil || !applied {
			return err
		}
		tr = &Transition{
			Agent:         negotiation.RoleBuyer,
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
		b.report(ctx, *tr)
	}
	return nil
}

// report publishes the transition to the activity surface and observers.
func (b *Buyer) report(ctx context.Context, tr Transition) {
	if err := b.store.Publish(ctx, store.ActivityEntry{
		Agent:         string(tr.Agent),
		NegotiationID: tr.NegotiationID,
		ItemTitle:     tr.ItemTitle,
		Action:        string(tr.Action),
		Amount:        tr.Amount,
		Message:       tr.Message,
		Timestamp:     tr.Timestamp,
	}); err != nil {
		b.log.Debug("activity publish failed: %v", err)
	}
	if b.events != nil {
		b.events.Dispatch(tr)
	}

	switch {
	case tr.Action == negotiation.ActionCounterOffer:
		b.log.Info("counter-offered $%d for %s (round %d)", tr.Amount, tr.ItemTitle, tr.Round)
	case tr.Action == negotiation.ActionAccept:
		b.log.Info("accepted offer of $%d for %s", tr.Amount, tr.ItemTitle)
	case tr.Action == negotiation.ActionEnd:
		b.log.Info("ended negotiation for %s: %s", tr.ItemTitle, tr.Status)
	}
}
