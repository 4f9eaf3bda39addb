package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSoftDeleteUserCascades(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	store.addShop(10, 1)
	store.addShop(11, 1)
	store.addShop(20, 2) // someone else's shop
	store.addUser(2)
	store.addContent("products", 10, 0)
	store.addContent("services", 10, 0)
	store.addContent("posts", 11, 0)
	store.addContent("posts", 0, 1)
	store.addContent("comments", 0, 1)
	store.addContent("products", 20, 0)
	svc := newTrustService(store)

	result, err := svc.SoftDeleteUser(context.Background(), 1, 99)
	require.NoError(t, err)
	require.Equal(t, 2, result.ShopsAffected)
	require.Equal(t, int64(5), result.DependentsAffected)

	state, err := store.GetUserState(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, state.DeletedAt)

	// the other owner's shop and catalog stay live
	other, err := store.GetShopState(context.Background(), 20)
	require.NoError(t, err)
	require.Nil(t, other.DeletedAt)
	for _, row := range store.content {
		if row.shopID == 20 {
			require.Nil(t, row.deletedAt)
		}
	}
}

func TestDeleteRestoreRoundTrip(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	store.addShop(10, 1)
	store.addContent("products", 10, 0)
	store.addContent("posts", 0, 1)
	svc := newTrustService(store)
	ctx := context.Background()

	deleted, err := svc.SoftDeleteUser(ctx, 1, 99)
	require.NoError(t, err)
	restored, err := svc.RestoreUser(ctx, 1, 99)
	require.NoError(t, err)
	require.Equal(t, deleted, restored)

	state, err := store.GetUserState(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, state.DeletedAt)
	shop, err := store.GetShopState(ctx, 10)
	require.NoError(t, err)
	require.Nil(t, shop.DeletedAt)
	for _, row := range store.content {
		require.Nil(t, row.deletedAt)
	}
}

func TestRestoreSkipsIndependentlyDeletedDependents(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	store.addShop(10, 1)
	store.addContent("products", 10, 0)
	svc := newTrustService(store)
	ctx := context.Background()

	// the owner deletes the shop first, then an admin deletes the account
	shopResult, err := svc.SoftDeleteShop(ctx, 10, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), shopResult.DependentsAffected)

	userResult, err := svc.SoftDeleteUser(ctx, 1, 99)
	require.NoError(t, err)
	require.Equal(t, 0, userResult.ShopsAffected)

	// restoring the account must not resurrect the shop
	restored, err := svc.RestoreUser(ctx, 1, 99)
	require.NoError(t, err)
	require.Equal(t, 0, restored.ShopsAffected)

	shop, err := store.GetShopState(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, shop.DeletedAt)
}

func TestDeleteConflicts(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	store.addShop(10, 1)
	svc := newTrustService(store)
	ctx := context.Background()

	_, err := svc.RestoreUser(ctx, 1, 99)
	require.ErrorIs(t, err, ErrUserNotDeleted)

	_, err = svc.SoftDeleteUser(ctx, 1, 99)
	require.NoError(t, err)
	_, err = svc.SoftDeleteUser(ctx, 1, 99)
	require.ErrorIs(t, err, ErrUserAlreadyDeleted)

	// the shop went down with the user cascade
	_, err = svc.SoftDeleteShop(ctx, 10, 99)
	require.ErrorIs(t, err, ErrShopAlreadyDeleted)

	_, err = svc.RestoreUser(ctx, 1, 99)
	require.NoError(t, err)
	_, err = svc.RestoreShop(ctx, 10, 99)
	require.ErrorIs(t, err, ErrShopNotDeleted)
}

func TestShopCascadeScopedToShop(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	store.addShop(10, 1)
	store.addShop(11, 1)
	store.addContent("products", 10, 0)
	store.addContent("products", 11, 0)
	store.addContent("posts", 0, 1)
	svc := newTrustService(store)
	ctx := context.Background()

	result, err := svc.SoftDeleteShop(ctx, 10, 99)
	require.NoError(t, err)
	require.Equal(t, 1, result.ShopsAffected)
	require.Equal(t, int64(1), result.DependentsAffected)

	// sibling shop, its catalog and the owner's posts stay live
	sibling, err := store.GetShopState(ctx, 11)
	require.NoError(t, err)
	require.Nil(t, sibling.DeletedAt)
	state, err := store.GetUserState(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, state.DeletedAt)
}

func TestCascadeRollsBackWhenAuditFails(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	store.addShop(10, 1)
	store.addContent("products", 10, 0)
	store.failAudit = true
	svc := newTrustService(store)

	_, err := svc.SoftDeleteUser(context.Background(), 1, 99)
	require.Error(t, err)

	state, err := store.GetUserState(context.Background(), 1)
	require.NoError(t, err)
	require.Nil(t, state.DeletedAt)
	shop, err := store.GetShopState(context.Background(), 10)
	require.NoError(t, err)
	require.Nil(t, shop.DeletedAt)
}

func TestRestoreUsesStampNotWallClock(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	store.addShop(10, 1)
	svc := newTrustService(store)
	ctx := context.Background()

	_, err := svc.SoftDeleteUser(ctx, 1, 99)
	require.NoError(t, err)

	// time passing between delete and restore must not matter
	time.Sleep(5 * time.Millisecond)

	result, err := svc.RestoreUser(ctx, 1, 99)
	require.NoError(t, err)
	require.Equal(t, 1, result.ShopsAffected)
}
