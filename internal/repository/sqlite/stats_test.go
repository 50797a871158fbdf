package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverlode/fleetpanel/internal/repository"
)

func TestStatsSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	admin := seedAdmin(t, store, "alpha", false)
	now := time.Now().Unix()
	past := now - 3600
	limit := int64(10)

	active := seedUser(t, store, "active", admin.ID, func(u *repository.User) {
		u.ActivatedAt = &past
	})
	seedUser(t, store, "onhold", admin.ID, nil)
	seedUser(t, store, "limited", admin.ID, func(u *repository.User) {
		u.ActivatedAt = &past
		u.DataLimit = &limit
		u.UsedTraffic = 10
	})
	seedUser(t, store, "expired", admin.ID, func(u *repository.User) {
		u.ActivatedAt = &past
		u.ExpireAt = &past
	})
	seedUser(t, store, "disabled", admin.ID, func(u *repository.User) {
		u.IsDisabled = true
	})

	online := seedNode(t, store, "online", "key-1", 443)
	seedNode(t, store, "offline", "key-2", 444)
	require.NoError(t, store.Nodes().SetOnline(ctx, online.ID, true, now))

	require.NoError(t, store.Usage().Record(ctx, active.ID, admin.ID, online.ID, 100, 200, false))

	snap, err := store.Stats().Snapshot(ctx, now)
	require.NoError(t, err)

	assert.EqualValues(t, 5, snap.Users.Total)
	assert.EqualValues(t, 1, snap.Users.Active)
	assert.EqualValues(t, 1, snap.Users.OnHold)
	assert.EqualValues(t, 1, snap.Users.Limited)
	assert.EqualValues(t, 1, snap.Users.Expired)
	assert.EqualValues(t, 1, snap.Users.Disabled)

	assert.EqualValues(t, 100, snap.Bandwidth.Incoming)
	assert.EqualValues(t, 200, snap.Bandwidth.Outgoing)

	assert.EqualValues(t, 2, snap.NodesTotal)
	assert.EqualValues(t, 1, snap.NodesOnline)

	// 内置 system 账号加上 alpha。
	assert.EqualValues(t, 2, snap.AdminsTotal)

	// 各状态计数之和必须等于总数。
	sum := snap.Users.Active + snap.Users.OnHold + snap.Users.Limited + snap.Users.Expired + snap.Users.Disabled
	assert.Equal(t, snap.Users.Total, sum)
}
