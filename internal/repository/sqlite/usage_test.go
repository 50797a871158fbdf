package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverlode/fleetpanel/internal/repository"
)

func TestUsageRecordAccumulatesAllCounters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	admin := seedAdmin(t, store, "alpha", false)
	user := seedUser(t, store, "u1", admin.ID, nil)
	node := seedNode(t, store, "edge-1", "key-1", 443)

	require.NoError(t, store.Usage().Record(ctx, user.ID, admin.ID, node.ID, 100, 200, false))
	require.NoError(t, store.Usage().Record(ctx, user.ID, admin.ID, node.ID, 10, 20, false))

	gotUser, err := store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 330, gotUser.UsedTraffic)

	gotAdmin, err := store.Admins().FindByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 330, gotAdmin.UsedTraffic)

	gotNode, err := store.Nodes().FindByID(ctx, node.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 110, gotNode.UplinkBytes)
	assert.EqualValues(t, 220, gotNode.DownlinkBytes)

	records, err := store.Usage().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.EqualValues(t, 110, records[0].Uplink)
	assert.EqualValues(t, 220, records[0].Downlink)
}

func TestUsageRecordActivatesOnHoldUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	admin := seedAdmin(t, store, "alpha", false)
	user := seedUser(t, store, "held", admin.ID, nil)
	node := seedNode(t, store, "edge-1", "key-1", 443)
	require.Nil(t, user.ActivatedAt)

	require.NoError(t, store.Usage().Record(ctx, user.ID, admin.ID, node.ID, 1, 1, true))

	got, err := store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ActivatedAt)
	first := *got.ActivatedAt

	// 再次带 activate 上报不能改写首次激活时间。
	require.NoError(t, store.Usage().Record(ctx, user.ID, admin.ID, node.ID, 1, 1, true))
	got, err = store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ActivatedAt)
	assert.Equal(t, first, *got.ActivatedAt)
}

func TestUsageRecordRollsBackWhenNodeMissing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	admin := seedAdmin(t, store, "alpha", false)
	user := seedUser(t, store, "u1", admin.ID, nil)

	err := store.Usage().Record(ctx, user.ID, admin.ID, 9999, 100, 200, false)
	require.ErrorIs(t, err, repository.ErrNotFound)

	// 用户和管理员的计数必须保持原样。
	gotUser, err := store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, gotUser.UsedTraffic)

	gotAdmin, err := store.Admins().FindByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, gotAdmin.UsedTraffic)
}

func TestUsageResetUserClearsCounterAndLedger(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	admin := seedAdmin(t, store, "alpha", false)
	user := seedUser(t, store, "u1", admin.ID, nil)
	node := seedNode(t, store, "edge-1", "key-1", 443)

	require.NoError(t, store.Usage().Record(ctx, user.ID, admin.ID, node.ID, 50, 50, false))
	require.NoError(t, store.Usage().ResetUser(ctx, user.ID))

	gotUser, err := store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, gotUser.UsedTraffic)

	records, err := store.Usage().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	// 管理员聚合与节点计数不随用户清零回退。
	gotAdmin, err := store.Admins().FindByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 100, gotAdmin.UsedTraffic)
}
