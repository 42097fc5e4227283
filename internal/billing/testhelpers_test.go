package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-billing/internal/paylink"
)

type stubRenderer struct {
	err   error
	calls int
}

func (s *stubRenderer) Render(_ context.Context, uri string) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []byte("png:" + uri), nil
}

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test:"), mr
}

type fixture struct {
	svc      *Service
	store    *RedisStore
	renderer *stubRenderer
	clock    *time.Time
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store, _ := newTestStore(t)
	enc, err := paylink.NewEncoder(paylink.Config{Scheme: "upi", PayeeHandle: "tailor@okbank"})
	require.NoError(t, err)
	renderer := &stubRenderer{}
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	seq := 0
	svc, err := NewService(ServiceConfig{
		Store:    store,
		Encoder:  enc,
		Renderer: renderer,
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return now },
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	})
	require.NoError(t, err)
	return fixture{svc: svc, store: store, renderer: renderer, clock: &now}
}

type failingStore struct{}

func (failingStore) Upsert(context.Context, Bill) error { return errors.New("store down") }

func (failingStore) Get(context.Context, string) (Bill, error) { return Bill{}, ErrBillNotFound }

func (failingStore) List(context.Context, int) ([]Bill, error) { return nil, errors.New("store down") }
