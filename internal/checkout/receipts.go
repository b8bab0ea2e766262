package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrReceiptNotFound is returned when a reference is unknown or expired.
var ErrReceiptNotFound = errors.New("receipt not found")

// ReceiptStore keeps receipts so buyers can look them up after submitting.
type ReceiptStore interface {
	Save(ctx context.Context, r Receipt) error
	Get(ctx context.Context, reference string) (Receipt, error)
}

// MemoryReceipts stores receipts in process memory.
type MemoryReceipts struct {
	mu    sync.RWMutex
	items map[string]Receipt
}

// NewMemoryReceipts constructs an empty store.
func NewMemoryReceipts() *MemoryReceipts {
	return &MemoryReceipts{items: make(map[string]Receipt)}
}

// Save implements ReceiptStore.
func (m *MemoryReceipts) Save(_ context.Context, r Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[r.Reference] = r
	return nil
}

// Get implements ReceiptStore.
func (m *MemoryReceipts) Get(_ context.Context, reference string) (Receipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.items[reference]
	if !ok {
		return Receipt{}, ErrReceiptNotFound
	}
	return r, nil
}

// RedisReceipts stores receipts as JSON values with a TTL.
type RedisReceipts struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

func (s RedisReceipts) key(reference string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "receipt:"
	}
	return prefix + reference
}

// Save implements ReceiptStore.
func (s RedisReceipts) Save(ctx context.Context, r Receipt) error {
	if s.Client == nil {
		return errors.New("receipts: redis client not configured")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, s.key(r.Reference), data, s.TTL).Err()
}

// Get implements ReceiptStore.
func (s RedisReceipts) Get(ctx context.Context, reference string) (Receipt, error) {
	if s.Client == nil {
		return Receipt{}, errors.New("receipts: redis client not configured")
	}
	data, err := s.Client.Get(ctx, s.key(reference)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Receipt{}, ErrReceiptNotFound
		}
		return Receipt{}, err
	}
	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return Receipt{}, err
	}
	return r, nil
}
