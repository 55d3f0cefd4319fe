package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stephanos-estetic/backend/internal/domain/cart"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// RedisCartStore keeps carts as JSON documents that expire after a period of
// inactivity. Every Save refreshes the TTL. Owned carts also get an index key
// pointing from the owner to the cart id. Saves run under WATCH so a write
// based on a stale read fails instead of overwriting a newer cart.
type RedisCartStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCartStore creates a cart store backed by Redis
func NewRedisCartStore(client redis.UniversalClient, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, ttl: ttl}
}

func cartKey(id uuid.UUID) string {
	return KeyPrefix + "cart:" + id.String()
}

func ownerKey(ownerID uuid.UUID) string {
	return KeyPrefix + "cart:owner:" + ownerID.String()
}

// TTL returns how long an untouched cart is kept
func (s *RedisCartStore) TTL() time.Duration {
	return s.ttl
}

// Get loads a cart by id
func (s *RedisCartStore) Get(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	data, err := s.client.Get(ctx, cartKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode cart %s: %w", id, err)
	}
	if c.Items == nil {
		c.Items = make([]cart.LineItem, 0)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("cart %s: %w", id, err)
	}
	return &c, nil
}

// GetByOwner resolves the owner index and loads the cart
func (s *RedisCartStore) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*cart.Cart, error) {
	raw, err := s.client.Get(ctx, ownerKey(ownerID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cart owner: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("corrupt cart owner index for %s: %w", ownerID, err)
	}
	return s.Get(ctx, id)
}

// Save writes the cart and refreshes its expiry
func (s *RedisCartStore) Save(ctx context.Context, c *cart.Cart) error {
	next := *c
	next.Version = c.Version + 1
	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	keys := []string{cartKey(c.ID)}
	if c.OwnerID != nil {
		keys = append(keys, ownerKey(*c.OwnerID))
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := storedVersion(ctx, tx, c.ID)
		if err != nil {
			return err
		}
		if stored != c.Version {
			return shared.ErrConcurrencyConflict
		}
		if c.Version == 0 && c.OwnerID != nil {
			n, err := tx.Exists(ctx, ownerKey(*c.OwnerID)).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				// the owner already got a cart from a concurrent request
				return shared.ErrConcurrencyConflict
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cartKey(c.ID), data, s.ttl)
			if c.OwnerID != nil {
				pipe.Set(ctx, ownerKey(*c.OwnerID), c.ID.String(), s.ttl)
			}
			return nil
		})
		return err
	}, keys...)

	switch {
	case err == nil:
		c.Version = next.Version
		return nil
	case errors.Is(err, redis.TxFailedErr), errors.Is(err, shared.ErrConcurrencyConflict):
		return shared.ErrConcurrencyConflict
	default:
		return fmt.Errorf("failed to save cart: %w", err)
	}
}

// storedVersion reads the version of the stored cart, 0 when absent
func storedVersion(ctx context.Context, tx *redis.Tx, id uuid.UUID) (int, error) {
	data, err := tx.Get(ctx, cartKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var head struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return 0, fmt.Errorf("failed to decode cart %s: %w", id, err)
	}
	return head.Version, nil
}

// Delete removes the cart and its owner index
func (s *RedisCartStore) Delete(ctx context.Context, id uuid.UUID) error {
	keys := []string{cartKey(id)}
	if c, err := s.Get(ctx, id); err == nil && c.OwnerID != nil {
		keys = append(keys, ownerKey(*c.OwnerID))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

var _ cart.ExpiringStore = (*RedisCartStore)(nil)
