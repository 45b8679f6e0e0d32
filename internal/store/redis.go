package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mbourmaud/souk/internal/negotiation"
)

const (
	// DefaultStateKey holds the serialized negotiation state.
	DefaultStateKey = "souk:state"
	// DefaultActivityStream receives one entry per applied transition.
	DefaultActivityStream = "souk:activity"

	defaultMaxRetries = 5
	activityMaxLen    = 512
)

// RedisStore keeps the state as a JSON blob in a single Redis key and
// implements Transact with optimistic WATCH/MULTI transactions. It backs the
// separate-process mode where buyer and seller run as independent binaries.
type RedisStore struct {
	client     *redis.Client
	key        string
	stream     string
	maxRetries int
}

// NewRedisStore wraps an existing client with the default keys.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:     client,
		key:        DefaultStateKey,
		stream:     DefaultActivityStream,
		maxRetries: defaultMaxRetries,
	}
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// load reads and decodes the state. A missing key or an undecodable blob
// both recover to the default empty state; a decodable state that violates
// the structural invariants is surfaced as an error, never repaired.
func (s *RedisStore) load(ctx context.Context, g getter) (*negotiation.State, error) {
	data, err := g.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return negotiation.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	st := negotiation.NewState()
	if err := json.Unmarshal(data, st); err != nil {
		return negotiation.NewState(), nil
	}
	if st.Active == nil {
		st.Active = make(map[string]*negotiation.Negotiation)
	}
	if st.AgentStatus == nil {
		st.AgentStatus = make(map[negotiation.Role]negotiation.AgentState)
	}
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("stored state is invalid: %w", err)
	}
	return st, nil
}

// Snapshot returns a decoded copy of the committed state.
func (s *RedisStore) Snapshot(ctx context.Context) (*negotiation.State, error) {
	return s.load(ctx, s.client)
}

// Transact runs fn inside a WATCH on the state key. If another writer commits
// between our read and our MULTI/EXEC, the transaction fails cleanly and fn
// is re-applied against the fresh state, up to the retry budget. fn therefore
// runs at-least-once per successful commit and must tolerate re-application.
func (s *RedisStore) Transact(ctx context.Context, fn func(*negotiation.State) error) (*negotiation.State, error) {
	var committed *negotiation.State

	txf := func(tx *redis.Tx) error {
		st, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		if err := fn(st); err != nil {
			return err
		}
		if err := st.Validate(); err != nil {
			return err
		}

		payload, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("failed to encode state: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, payload, 0)
			return nil
		})
		if err == nil {
			committed = st
		}
		return err
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, s.key)
		if err == nil {
			return committed, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrConflict
}

// Publish appends the entry to the activity stream, trimmed to a bounded
// length the way the activity log surface expects.
func (s *RedisStore) Publish(ctx context.Context, entry ActivityEntry) error {
	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: activityMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"timestamp":   entry.Timestamp.Format(time.RFC3339),
			"agent":       entry.Agent,
			"negotiation": entry.NegotiationID,
			"item":        entry.ItemTitle,
			"action":      entry.Action,
			"amount":      entry.Amount,
			"message":     entry.Message,
		},
	}).Err()
}

// Reset overwrites the state with the default empty record and drops the
// activity stream.
func (s *RedisStore) Reset(ctx context.Context) error {
	payload, err := json.Marshal(negotiation.NewState())
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to reset state: %w", err)
	}
	if err := s.client.Del(ctx, s.stream).Err(); err != nil {
		return fmt.Errorf("failed to clear activity stream: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
