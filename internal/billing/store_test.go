package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRedisStoreUpsertGetList(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Upsert(ctx, Bill{ID: "a", CustomerName: "First", UpdatedAt: base}))
	require.NoError(t, store.Upsert(ctx, Bill{ID: "b", CustomerName: "Second", UpdatedAt: base.Add(time.Hour)}))
	require.True(t, mr.Exists("test:bill:a"))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "First", got.CustomerName)

	// last writer wins
	require.NoError(t, store.Upsert(ctx, Bill{ID: "a", CustomerName: "Edited", UpdatedAt: base.Add(2 * time.Hour)}))
	got, err = store.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "Edited", got.CustomerName)

	list, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a", list[0].ID)
	require.Equal(t, "b", list[1].ID)

	list, err = store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRedisStoreErrors(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrBillNotFound)

	require.Error(t, store.Upsert(ctx, Bill{}))

	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, list)

	var nilStore *RedisStore
	_, err = nilStore.Get(ctx, "x")
	require.Error(t, err)
}
