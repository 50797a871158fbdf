package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverlode/fleetpanel/internal/repository"
)

func TestUsageRecordRejectsNegativeDeltas(t *testing.T) {
	f := newFixture(t)
	err := f.usage.Record(context.Background(), UsageRecordInput{Username: "u1", NodeID: 1, Uplink: -1})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUsageRecordActivatesOnFirstTraffic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	op := seedOwner(t, f, "alpha")

	_, err := f.users.Create(ctx, op, UserCreateInput{Username: "held", OnHold: true})
	require.NoError(t, err)
	node, err := f.nodes.Add(ctx, SystemOperator, NodeAddInput{Name: "edge", Address: "10.0.0.1", Port: 443})
	require.NoError(t, err)

	require.NoError(t, f.usage.Record(ctx, UsageRecordInput{Username: "held", NodeID: node.ID, Uplink: 5, Downlink: 5}))

	view, err := f.users.Get(ctx, op, "held")
	require.NoError(t, err)
	assert.Equal(t, repository.UserStatusActive, view.Status)
	assert.NotNil(t, view.ActivatedAt)
	assert.EqualValues(t, 10, view.UsedTraffic)
}

func TestUsageRecordCrossingLimitDerivesLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	op := seedOwner(t, f, "alpha")

	limit := int64(1_000_000)
	_, err := f.users.Create(ctx, op, UserCreateInput{Username: "u1", DataLimit: &limit})
	require.NoError(t, err)
	node, err := f.nodes.Add(ctx, SystemOperator, NodeAddInput{Name: "edge", Address: "10.0.0.1", Port: 443})
	require.NoError(t, err)

	// 差一个字节到限额，状态仍是 active。
	require.NoError(t, f.usage.Record(ctx, UsageRecordInput{Username: "u1", NodeID: node.ID, Uplink: 999_999}))
	view, err := f.users.Get(ctx, op, "u1")
	require.NoError(t, err)
	assert.Equal(t, repository.UserStatusActive, view.Status)

	// 跨过限额的上报照常入账，状态在读取时变为 limited。
	require.NoError(t, f.usage.Record(ctx, UsageRecordInput{Username: "u1", NodeID: node.ID, Uplink: 2}))
	view, err = f.users.Get(ctx, op, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_001, view.UsedTraffic)
	assert.Equal(t, repository.UserStatusLimited, view.Status)
}

func TestUsageRecordUnknownTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	op := seedOwner(t, f, "alpha")

	_, err := f.users.Create(ctx, op, UserCreateInput{Username: "u1"})
	require.NoError(t, err)

	err = f.usage.Record(ctx, UsageRecordInput{Username: "ghost", NodeID: 1, Uplink: 1})
	require.ErrorIs(t, err, ErrNotFound)

	err = f.usage.Record(ctx, UsageRecordInput{Username: "u1", NodeID: 9999, Uplink: 1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUsageByUserOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := seedOwner(t, f, "alpha")
	beta := seedOwner(t, f, "beta")

	_, err := f.users.Create(ctx, alpha, UserCreateInput{Username: "u1"})
	require.NoError(t, err)
	node, err := f.nodes.Add(ctx, SystemOperator, NodeAddInput{Name: "edge", Address: "10.0.0.1", Port: 443})
	require.NoError(t, err)
	require.NoError(t, f.usage.Record(ctx, UsageRecordInput{Username: "u1", NodeID: node.ID, Uplink: 7, Downlink: 3}))

	entries, err := f.usage.ByUser(ctx, alpha, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, node.ID, entries[0].NodeID)
	assert.Equal(t, "edge", entries[0].NodeName)
	assert.EqualValues(t, 7, entries[0].Uplink)
	assert.EqualValues(t, 3, entries[0].Downlink)

	_, err = f.usage.ByUser(ctx, beta, "u1")
	require.ErrorIs(t, err, ErrForbidden)

	entries, err = f.usage.ByUser(ctx, SystemOperator, "u1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
