package cart

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/pizzastock/backend/pkg/redis"
)

// sessionKV is the slice of the redis client the store needs.
type sessionKV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(token string) string
}

// Store persists carts in redis keyed by session token. A missing key reads
// back as an empty cart; every save refreshes the session TTL.
type Store struct {
	kv  sessionKV
	ttl time.Duration
}

// NewStore builds a cart store over the shared redis client.
func NewStore(kv sessionKV, ttl time.Duration) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{kv: kv, ttl: ttl}, nil
}

// Get loads the cart for a token.
func (s *Store) Get(ctx context.Context, token string) (Cart, error) {
	raw, err := s.kv.Get(ctx, s.kv.CartKey(token))
	if err != nil {
		if stdErrors.Is(err, redis.Nil) {
			return Cart{}, nil
		}
		return Cart{}, fmt.Errorf("loading cart: %w", err)
	}

	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		// A corrupt session is discarded rather than poisoning the caller.
		return Cart{}, nil
	}
	return cart, nil
}

// Save writes the cart back and refreshes the TTL.
func (s *Store) Save(ctx context.Context, token string, cart Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encoding cart: %w", err)
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(token), payload, s.ttl); err != nil {
		return fmt.Errorf("saving cart: %w", err)
	}
	return nil
}

// Clear drops the session.
func (s *Store) Clear(ctx context.Context, token string) error {
	if err := s.kv.Del(ctx, s.kv.CartKey(token)); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}
