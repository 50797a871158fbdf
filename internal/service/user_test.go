package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverlode/fleetpanel/internal/repository"
)

func seedOwner(t *testing.T, f *fixture, username string) Operator {
	t.Helper()
	_, err := f.admins.Create(context.Background(), SystemOperator, AdminCreateInput{Username: username, Password: "secret"})
	require.NoError(t, err)
	return Operator{Username: username}
}

func TestUserCreateDefaultsToImmediateActivation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	op := seedOwner(t, f, "alpha")

	view, err := f.users.Create(ctx, op, UserCreateInput{Username: "u1"})
	require.NoError(t, err)
	assert.Equal(t, repository.UserStatusActive, view.Status)
	assert.NotNil(t, view.ActivatedAt)
	assert.Equal(t, "alpha", view.Owner)
}

func TestUserCreateOnHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	op := seedOwner(t, f, "alpha")

	view, err := f.users.Create(ctx, op, UserCreateInput{Username: "held", OnHold: true})
	require.NoError(t, err)
	assert.Equal(t, repository.UserStatusOnHold, view.Status)
	assert.Nil(t, view.ActivatedAt)
}

func TestUserOwnershipBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := seedOwner(t, f, "alpha")
	beta := seedOwner(t, f, "beta")

	_, err := f.users.Create(ctx, alpha, UserCreateInput{Username: "owned"})
	require.NoError(t, err)

	// 其它非 sudo 管理员既看不到也改不了。
	_, err = f.users.Get(ctx, beta, "owned")
	require.ErrorIs(t, err, ErrForbidden)
	err = f.users.Remove(ctx, beta, "owned")
	require.ErrorIs(t, err, ErrForbidden)

	// sudo 不受归属限制。
	_, err = f.users.Get(ctx, SystemOperator, "owned")
	require.NoError(t, err)
}

func TestUserListZeroLimitReturnsEmptyPageWithTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	op := seedOwner(t, f, "alpha")

	for i := 0; i < 4; i++ {
		_, err := f.users.Create(ctx, op, UserCreateInput{Username: fmt.Sprintf("u%d", i)})
		require.NoError(t, err)
	}

	result, err := f.users.List(ctx, op, UserListInput{Limit: 0})
	require.NoError(t, err)
	assert.Empty(t, result.Users)
	assert.EqualValues(t, 4, result.Total)
}

func TestUserListScopesAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := seedOwner(t, f, "alpha")
	beta := seedOwner(t, f, "beta")

	_, err := f.users.Create(ctx, alpha, UserCreateInput{Username: "a1"})
	require.NoError(t, err)
	_, err = f.users.Create(ctx, alpha, UserCreateInput{Username: "a2", OnHold: true})
	require.NoError(t, err)
	_, err = f.users.Create(ctx, beta, UserCreateInput{Username: "b1"})
	require.NoError(t, err)

	// 非 sudo 只能看见自己名下的用户，请求里的 Admin 被忽略。
	admin := "beta"
	result, err := f.users.List(ctx, alpha, UserListInput{Admin: &admin, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Total)

	// sudo 可以按归属过滤。
	result, err = f.users.List(ctx, SystemOperator, UserListInput{Admin: &admin, Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Users, 1)
	assert.Equal(t, "b1", result.Users[0].Username)

	// 状态过滤。
	status := repository.UserStatusOnHold
	result, err = f.users.List(ctx, SystemOperator, UserListInput{Status: &status, Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Users, 1)
	assert.Equal(t, "a2", result.Users[0].Username)

	// 非法参数。
	bad := repository.UserStatus("bogus")
	_, err = f.users.List(ctx, SystemOperator, UserListInput{Status: &bad, Limit: 10})
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = f.users.List(ctx, SystemOperator, UserListInput{Offset: -1})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUserModifyClearFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	op := seedOwner(t, f, "alpha")

	limit := int64(1000)
	expire := time.Now().Unix() + 3600
	_, err := f.users.Create(ctx, op, UserCreateInput{Username: "u1", DataLimit: &limit, ExpireAt: &expire})
	require.NoError(t, err)

	view, err := f.users.Modify(ctx, op, "u1", UserModifyInput{ClearDataLimit: true, ClearExpire: true})
	require.NoError(t, err)
	assert.Nil(t, view.DataLimit)
	assert.Nil(t, view.ExpireAt)

	negative := int64(-1)
	_, err = f.users.Modify(ctx, op, "u1", UserModifyInput{DataLimit: &negative})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUserActivateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	op := seedOwner(t, f, "alpha")

	_, err := f.users.Create(ctx, op, UserCreateInput{Username: "held", OnHold: true})
	require.NoError(t, err)

	view, err := f.users.Activate(ctx, op, "held")
	require.NoError(t, err)
	require.NotNil(t, view.ActivatedAt)
	first := *view.ActivatedAt

	view, err = f.users.Activate(ctx, op, "held")
	require.NoError(t, err)
	require.NotNil(t, view.ActivatedAt)
	assert.Equal(t, first, *view.ActivatedAt)
}

func TestUserResetUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	op := seedOwner(t, f, "alpha")

	_, err := f.users.Create(ctx, op, UserCreateInput{Username: "u1"})
	require.NoError(t, err)
	node, err := f.nodes.Add(ctx, SystemOperator, NodeAddInput{Name: "edge", Address: "10.0.0.1", Port: 443})
	require.NoError(t, err)

	require.NoError(t, f.usage.Record(ctx, UsageRecordInput{Username: "u1", NodeID: node.ID, Uplink: 10, Downlink: 20}))
	require.NoError(t, f.users.ResetUsage(ctx, op, "u1"))

	view, err := f.users.Get(ctx, op, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, view.UsedTraffic)

	entries, err := f.usage.ByUser(ctx, op, "u1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
