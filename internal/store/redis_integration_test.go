//go:build integration
// +build integration

package store_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/mbourmaud/souk/internal/agent"
	"github.com/mbourmaud/souk/internal/market"
	"github.com/mbourmaud/souk/internal/negotiation"
	"github.com/mbourmaud/souk/internal/store"
	"github.com/mbourmaud/souk/internal/strategy"
)

func setupRedisStore(t *testing.T) *store.RedisStore {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())

	s := store.NewRedisStore(client)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRedisStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	s := setupRedisStore(t)

	item := negotiation.Item{ID: "1", Title: "iPhone 12 Pro", AskingPrice: 520, Category: "Electronics"}
	n := negotiation.NewNegotiation(item, "buyer_001", 442, 312, "hi", time.Now().UTC())

	_, err := s.Transact(ctx, func(st *negotiation.State) error {
		return negotiation.Open(st, n)
	})
	require.NoError(t, err)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Contains(t, snap.Active, n.ID)
	assert.Equal(t, 312, snap.Active[n.ID].CurrentOffer)
	assert.Equal(t, negotiation.AgentNegotiating, snap.AgentStatus[negotiation.RoleBuyer])
}

// Concurrent transactions over distinct negotiations must all commit through
// the WATCH retry loop without losing writes.
func TestRedisStoreConcurrentTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	s := setupRedisStore(t)
	const workers = 8

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			item := negotiation.Item{ID: string(rune('a' + i)), Title: "Item", AskingPrice: 100, Category: "Misc"}
			n := negotiation.NewNegotiation(item, "buyer_001", 80, 60, "hi", time.Now().UTC())
			if _, err := s.Transact(ctx, func(st *negotiation.State) error {
				return negotiation.Open(st, n)
			}); err != nil {
				t.Errorf("worker %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Active, workers, "every concurrent open must land")
}

// Full simulation over Redis: buyer and seller agents converge on a deal for
// the low-urgency item, where the price walk is fully deterministic.
func TestAgentsNegotiateOverRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s := setupRedisStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	buyerStrat, err := strategy.NewBuyer(strategy.BuyerParams{
		Budget:          1000,
		CategoryLimits:  map[string]float64{"Electronics": 0.85},
		DefaultLimit:    0.75,
		InitialOfferPct: 0.60,
		IncrementPct:    0.05,
		MaxRounds:       5,
	}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	sellerStrat, err := strategy.NewSeller(strategy.SellerParams{
		Inventory: []strategy.InventoryItem{
			{ID: "1", Title: "iPhone 12 Pro", AskingPrice: 520, Category: "Electronics", MinimumPrice: 420, Urgency: 0.3},
		},
		InitialDiscount:  0.05,
		DiscountPerRound: 0.03,
		DiscountCap:      0.25,
	}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	buyer := agent.NewBuyer(agent.BuyerOptions{
		ID:       "buyer_001",
		Strategy: buyerStrat,
		Store:    s,
		Source: market.StaticSource{
			{ID: "1", Title: "iPhone 12 Pro", AskingPrice: 520, Category: "Electronics"},
		},
		PollInterval: 50 * time.Millisecond,
		MaxItems:     1,
	})
	seller := agent.NewSeller(agent.SellerOptions{
		ID:           "seller_001",
		Strategy:     sellerStrat,
		Store:        s,
		PollInterval: 50 * time.Millisecond,
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); assert.NoError(t, buyer.Run(ctx)) }()
	go func() { defer wg.Done(); assert.NoError(t, seller.Run(ctx)) }()
	wg.Wait()

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Completed, 1)

	deal := snap.Completed[0]
	assert.Equal(t, negotiation.StatusAccepted, deal.Status)
	assert.Equal(t, 431, deal.FinalPrice, "price walk 312/478 -> 327/462 -> 343/447 -> 360/431 -> accept")
	assert.Empty(t, snap.Active)
}
