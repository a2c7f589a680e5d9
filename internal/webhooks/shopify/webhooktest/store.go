// Package webhooktest provides an in-memory delivery store for webhook tests.
package webhooktest

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type Store struct {
	mu   sync.Mutex
	data map[string]string
}

func NewStore() *Store {
	return &Store{data: make(map[string]string)}
}

func (s *Store) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *Store) WebhookDeliveryKey(shopDomain, webhookID string) string {
	return fmt.Sprintf("rb:webhook:%s:%s", shopDomain, webhookID)
}

// Len reports how many deliveries are currently marked.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
