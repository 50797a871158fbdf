package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverlode/fleetpanel/internal/repository"
)

func TestUserCreateDuplicateUsernameConflicts(t *testing.T) {
	store := newTestStore(t)
	admin := seedAdmin(t, store, "alpha", false)
	seedUser(t, store, "dup", admin.ID, nil)

	_, err := store.Users().Create(context.Background(), &repository.User{Username: "dup", AdminID: admin.ID})
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestUserStatusFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	admin := seedAdmin(t, store, "alpha", false)

	now := time.Now().Unix()
	past := now - 3600
	future := now + 3600
	limit := int64(100)

	seedUser(t, store, "active", admin.ID, func(u *repository.User) {
		u.ActivatedAt = &past
	})
	seedUser(t, store, "onhold", admin.ID, nil)
	seedUser(t, store, "limited", admin.ID, func(u *repository.User) {
		u.ActivatedAt = &past
		u.DataLimit = &limit
		u.UsedTraffic = 100
	})
	seedUser(t, store, "expired", admin.ID, func(u *repository.User) {
		u.ActivatedAt = &past
		u.ExpireAt = &past
	})
	seedUser(t, store, "disabled", admin.ID, func(u *repository.User) {
		u.ActivatedAt = &past
		u.IsDisabled = true
		// 同时超限时禁用优先，不得重复算进 limited。
		u.DataLimit = &limit
		u.UsedTraffic = 200
	})
	seedUser(t, store, "future-expiry", admin.ID, func(u *repository.User) {
		u.ActivatedAt = &past
		u.ExpireAt = &future
	})

	cases := map[repository.UserStatus][]string{
		repository.UserStatusActive:   {"active", "future-expiry"},
		repository.UserStatusOnHold:   {"onhold"},
		repository.UserStatusLimited:  {"limited"},
		repository.UserStatusExpired:  {"expired"},
		repository.UserStatusDisabled: {"disabled"},
	}
	for status, want := range cases {
		status := status
		users, err := store.Users().List(ctx, repository.UserFilter{Status: &status, NowUnix: now})
		require.NoError(t, err, "status %s", status)
		var got []string
		for _, u := range users {
			got = append(got, u.Username)
		}
		assert.ElementsMatch(t, want, got, "status %s", status)

		count, err := store.Users().Count(ctx, repository.UserFilter{Status: &status, NowUnix: now})
		require.NoError(t, err)
		assert.EqualValues(t, len(want), count, "status %s", status)
	}
}

func TestUserListPaginationCoversAllRowsWithoutGaps(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	admin := seedAdmin(t, store, "alpha", false)

	const total = 7
	for i := 0; i < total; i++ {
		seedUser(t, store, fmt.Sprintf("user-%02d", i), admin.ID, nil)
	}

	seen := make(map[string]bool)
	for offset := 0; ; offset += 3 {
		page, err := store.Users().List(ctx, repository.UserFilter{Offset: offset, Limit: 3})
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for _, u := range page {
			assert.False(t, seen[u.Username], "duplicate %s across pages", u.Username)
			seen[u.Username] = true
		}
	}
	assert.Len(t, seen, total)
}

func TestUserSetDisabledByAdmin(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alpha := seedAdmin(t, store, "alpha", false)
	beta := seedAdmin(t, store, "beta", false)

	seedUser(t, store, "a1", alpha.ID, nil)
	seedUser(t, store, "a2", alpha.ID, nil)
	seedUser(t, store, "b1", beta.ID, nil)

	affected, err := store.Users().SetDisabledByAdmin(ctx, alpha.ID, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)

	// 已停用的行不再计入第二次停用。
	affected, err = store.Users().SetDisabledByAdmin(ctx, alpha.ID, true)
	require.NoError(t, err)
	assert.EqualValues(t, 0, affected)

	other, err := store.Users().FindByUsername(ctx, "b1")
	require.NoError(t, err)
	assert.False(t, other.IsDisabled)
}

func TestUserUpdateMissingRowReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.Users().Update(context.Background(), &repository.User{ID: 404, Username: "ghost"})
	require.ErrorIs(t, err, repository.ErrNotFound)
}
