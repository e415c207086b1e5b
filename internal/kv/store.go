package kv

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Bucket names for the flat key-value persistence layout. One bucket per entity
// type, each holding a single JSON document.
const (
	BucketBillItems   = "bill:items"
	BucketStock       = "stock:items"
	BucketExpenses    = "expense:entries"
	BucketManualDaily = "report:manual"
	BucketSettings    = "settings"
	BucketOrders      = "checkout:orders"
)

// Store persists named JSON buckets in Redis, namespaced per tenant. Callers own
// the document shape; the store only does (de)serialisation and key derivation.
type Store struct {
	Client *redis.Client
	Prefix string
}

// Key derives the storage key for a tenant's bucket.
func (s *Store) Key(tenant, bucket string) string {
	key := bucket
	if tenant != "" {
		key = tenant + ":" + key
	}
	if s != nil && s.Prefix != "" {
		key = s.Prefix + ":" + key
	}
	return key
}

// Load reads the bucket into dst. It reports whether the bucket existed.
func (s *Store) Load(ctx context.Context, tenant, bucket string, dst any) (bool, error) {
	if s == nil || s.Client == nil {
		return false, errors.New("kv store not configured")
	}
	data, err := s.Client.Get(ctx, s.Key(tenant, bucket)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Save serialises v and writes it to the bucket without expiry.
func (s *Store) Save(ctx context.Context, tenant, bucket string, v any) error {
	return s.SaveTTL(ctx, tenant, bucket, v, 0)
}

// SaveTTL serialises v and writes it to the bucket with the provided expiry.
// A non-positive ttl persists indefinitely.
func (s *Store) SaveTTL(ctx context.Context, tenant, bucket string, v any, ttl time.Duration) error {
	if s == nil || s.Client == nil {
		return errors.New("kv store not configured")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, s.Key(tenant, bucket), data, ttl).Err()
}

// Delete removes a bucket. Deleting a missing bucket is not an error.
func (s *Store) Delete(ctx context.Context, tenant, bucket string) error {
	if s == nil || s.Client == nil {
		return errors.New("kv store not configured")
	}
	return s.Client.Del(ctx, s.Key(tenant, bucket)).Err()
}
