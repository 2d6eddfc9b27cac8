package testutil

import (
	"context"
	"testing"

	"github.com/flexprice/cashier/internal/domain/account"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountStoreVersionConflict(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryAccountStore()
	require.NoError(t, store.Create(ctx, &account.Account{ID: "acct_1", Version: 1, Metadata: types.Metadata{"k": "v"}}))

	first, err := store.Get(ctx, "acct_1")
	require.NoError(t, err)
	second, err := store.Get(ctx, "acct_1")
	require.NoError(t, err)

	first.CardLastFour = "1111"
	require.NoError(t, store.Update(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.CardLastFour = "2222"
	err = store.Update(ctx, second)
	assert.True(t, ierr.IsVersionConflict(err))
	assert.Equal(t, 1, second.Version)

	stored, err := store.Get(ctx, "acct_1")
	require.NoError(t, err)
	assert.Equal(t, "1111", stored.CardLastFour)
	assert.Equal(t, 2, stored.Version)
}

func TestAccountStoreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryAccountStore()
	a := &account.Account{ID: "acct_1", Version: 1, Metadata: types.Metadata{"k": "v"}}
	require.NoError(t, store.Create(ctx, a))

	a.Metadata["k"] = "changed"
	stored, err := store.Get(ctx, "acct_1")
	require.NoError(t, err)
	assert.Equal(t, "v", stored.Metadata["k"])

	assert.True(t, ierr.IsAlreadyExists(store.Create(ctx, a)))
	_, err = store.Get(ctx, "acct_2")
	assert.True(t, ierr.IsNotFound(err))
}
