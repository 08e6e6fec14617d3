package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/shoplane/shoplane-backend/pkg/logger"
)

// storeClient is the slice of the redis client the cart store consumes.
// *redis.Client satisfies it.
type storeClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...any) error
	SRem(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
	CartKey(cartID string) string
	CustomerCartsKey(customerID string) string
}

// RedisStore persists carts as JSON values whose TTL mirrors the cart's
// expiry, plus a per-customer set of cart ids. Expiry is passive: the store
// evicts, the engine never sweeps.
type RedisStore struct {
	client storeClient
	logg   *logger.Logger
}

// NewRedisStore wires the cart store onto an already-connected client.
func NewRedisStore(client storeClient, logg *logger.Logger) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStore{client: client, logg: logg}, nil
}

// Load reads a cart by id. Missing keys and carts past their expiry both
// surface as ErrNotFound.
func (s *RedisStore) Load(ctx context.Context, cartID string) (*Cart, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(cartID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load cart %s: %w", cartID, err)
	}

	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", cartID, err)
	}

	// The key may linger briefly past ExpiresAt; treat it as gone either way.
	if !cart.ExpiresAt.IsZero() && !cart.ExpiresAt.After(time.Now()) {
		if delErr := s.client.Del(ctx, s.client.CartKey(cartID)); delErr != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithCartID(ctx, cartID), "cartstore.evict_failed")
		}
		return nil, ErrNotFound
	}
	return &cart, nil
}

// Save serializes the cart and writes it with the remaining TTL. A cart whose
// expiry already elapsed is not stored; the write reports ErrNotFound.
func (s *RedisStore) Save(ctx context.Context, cart *Cart) error {
	if cart == nil || cart.ID == "" {
		return fmt.Errorf("cart id required")
	}

	ttl := time.Until(cart.ExpiresAt)
	if ttl <= 0 {
		if err := s.client.Del(ctx, s.client.CartKey(cart.ID)); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithCartID(ctx, cart.ID), "cartstore.evict_failed")
		}
		return ErrNotFound
	}

	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", cart.ID, err)
	}
	if err := s.client.Set(ctx, s.client.CartKey(cart.ID), string(raw), ttl); err != nil {
		return fmt.Errorf("save cart %s: %w", cart.ID, err)
	}
	return nil
}

// Delete removes the primary cart record.
func (s *RedisStore) Delete(ctx context.Context, cartID string) error {
	if err := s.client.Del(ctx, s.client.CartKey(cartID)); err != nil {
		return fmt.Errorf("delete cart %s: %w", cartID, err)
	}
	return nil
}

// AddToCustomerIndex records the cart id in the customer's set. Fail-soft.
func (s *RedisStore) AddToCustomerIndex(ctx context.Context, customerID, cartID string) {
	if customerID == "" {
		return
	}
	if err := s.client.SAdd(ctx, s.client.CustomerCartsKey(customerID), cartID); err != nil && s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"customer_id": customerID, "cart_id": cartID})
		s.logg.Warn(ctx, "cartstore.index_add_failed")
	}
}

// RemoveFromCustomerIndex drops the cart id from the customer's set. Fail-soft.
func (s *RedisStore) RemoveFromCustomerIndex(ctx context.Context, customerID, cartID string) {
	if customerID == "" {
		return
	}
	if err := s.client.SRem(ctx, s.client.CustomerCartsKey(customerID), cartID); err != nil && s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"customer_id": customerID, "cart_id": cartID})
		s.logg.Warn(ctx, "cartstore.index_remove_failed")
	}
}

// CustomerCartIDs lists the cart ids currently indexed for a customer.
func (s *RedisStore) CustomerCartIDs(ctx context.Context, customerID string) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.client.CustomerCartsKey(customerID))
	if err != nil {
		return nil, fmt.Errorf("list carts for customer %s: %w", customerID, err)
	}
	return ids, nil
}
