package sqlstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dsmaint/pkg/record"
	"github.com/Sumatoshi-tech/dsmaint/pkg/record/sqlstore"
)

func openTemp(t *testing.T) *sqlstore.Store {
	t.Helper()

	store, err := sqlstore.Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

func TestStore_ListKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTemp(t)

	require.NoError(t, store.Put(ctx,
		record.Record{ID: "3", Kind: record.KindExploration, Title: "third"},
		record.Record{ID: "1", Kind: record.KindExploration, Title: "first"},
	))
	require.NoError(t, store.Put(ctx, record.Record{ID: "3", Kind: record.KindExploration, Title: "updated"}))

	got, err := store.List(ctx, record.KindExploration)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ID)
	assert.Equal(t, "updated", got[0].Title)
	assert.Equal(t, "1", got[1].ID)
}

func TestStore_Kinds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTemp(t)

	require.NoError(t, store.Put(ctx,
		record.Record{ID: "1", Kind: "TopicModel"},
		record.Record{ID: "1", Kind: record.KindExploration},
	))

	kinds, err := store.Kinds(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{record.KindExploration, "TopicModel"}, kinds)
}

func TestStore_PutIsAtomic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTemp(t)

	err := store.Put(ctx,
		record.Record{ID: "1", Kind: record.KindExploration},
		record.Record{Kind: record.KindExploration},
	)
	require.ErrorIs(t, err, record.ErrEmptyID)

	got, listErr := store.List(ctx, record.KindExploration)
	require.NoError(t, listErr)
	assert.Empty(t, got)
}

func TestStore_ClosedStore(t *testing.T) {
	t.Parallel()

	store, err := sqlstore.Open(filepath.Join(t.TempDir(), "nested", "records.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, listErr := store.List(context.Background(), record.KindExploration)
	require.ErrorIs(t, listErr, record.ErrClosed)
}
