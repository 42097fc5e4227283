package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store is the document store bills are written to. Writes are whole-document upserts.
type Store interface {
	Upsert(ctx context.Context, bill Bill) error
	Get(ctx context.Context, id string) (Bill, error)
	List(ctx context.Context, limit int) ([]Bill, error)
}

// RedisStore keeps bills as JSON documents in Redis with a recency index.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a store using prefix for every key.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "billing:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) docKey(id string) string { return s.prefix + "bill:" + id }

func (s *RedisStore) indexKey() string { return s.prefix + "bills:recent" }

// Upsert overwrites the document for bill.ID. The last writer wins.
func (s *RedisStore) Upsert(ctx context.Context, bill Bill) error {
	if s == nil || s.client == nil {
		return errors.New("billing: redis store not configured")
	}
	if bill.ID == "" {
		return errors.New("billing: bill id is required")
	}
	data, err := json.Marshal(bill)
	if err != nil {
		return fmt.Errorf("encode bill: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.docKey(bill.ID), data, 0)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(bill.UpdatedAt.UnixMilli()), Member: bill.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("upsert bill %s: %w", bill.ID, err)
	}
	return nil
}

// Get loads a bill by id, returning ErrBillNotFound when absent.
func (s *RedisStore) Get(ctx context.Context, id string) (Bill, error) {
	if s == nil || s.client == nil {
		return Bill{}, errors.New("billing: redis store not configured")
	}
	data, err := s.client.Get(ctx, s.docKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Bill{}, ErrBillNotFound
		}
		return Bill{}, err
	}
	var bill Bill
	if err := json.Unmarshal(data, &bill); err != nil {
		return Bill{}, fmt.Errorf("decode bill %s: %w", id, err)
	}
	return bill, nil
}

// List returns up to limit bills, most recently updated first.
func (s *RedisStore) List(ctx context.Context, limit int) ([]Bill, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("billing: redis store not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Bill{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	bills := make([]Bill, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var bill Bill
		if err := json.Unmarshal([]byte(raw), &bill); err != nil {
			return nil, fmt.Errorf("decode bill %s: %w", ids[i], err)
		}
		bills = append(bills, bill)
	}
	return bills, nil
}
