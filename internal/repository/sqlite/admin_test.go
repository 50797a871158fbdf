package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverlode/fleetpanel/internal/repository"
)

func TestAdminCreateDuplicateUsernameConflicts(t *testing.T) {
	store := newTestStore(t)
	seedAdmin(t, store, "alpha", false)

	_, err := store.Admins().Create(context.Background(), &repository.Admin{Username: "alpha", PasswordHash: "x"})
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestAdminListFilterAndPagination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedAdmin(t, store, "alpha", false)
	seedAdmin(t, store, "beta", true)

	username := "beta"
	admins, err := store.Admins().List(ctx, repository.AdminFilter{Username: &username})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "beta", admins[0].Username)
	assert.True(t, admins[0].IsSudo)

	count, err := store.Admins().Count(ctx, repository.AdminFilter{Username: &username})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// system + alpha + beta，分页后总数不变。
	page, err := store.Admins().List(ctx, repository.AdminFilter{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)

	total, err := store.Admins().Count(ctx, repository.AdminFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestAdminResetUsage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	admin := seedAdmin(t, store, "alpha", false)
	user := seedUser(t, store, "u1", admin.ID, nil)
	node := seedNode(t, store, "edge-1", "key-1", 443)
	require.NoError(t, store.Usage().Record(ctx, user.ID, admin.ID, node.ID, 10, 10, false))

	require.NoError(t, store.Admins().ResetUsage(ctx, admin.ID))

	got, err := store.Admins().FindByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.UsedTraffic)

	// 名下用户的计数不受影响。
	gotUser, err := store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 20, gotUser.UsedTraffic)
}

func TestAdminDeleteMissingRowReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.Admins().Delete(context.Background(), 404)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
