package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminCreateRequiresSudo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.admins.Create(ctx, Operator{Username: "mortal"}, AdminCreateInput{Username: "x", Password: "secret"})
	require.ErrorIs(t, err, ErrForbidden)

	view, err := f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "alpha", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "alpha", view.Username)
	assert.False(t, view.IsSudo)
}

func TestAdminCreateValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "  ", Password: "secret"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "alpha", Password: ""})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "alpha", Password: "secret"})
	require.NoError(t, err)
	_, err = f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "alpha", Password: "other"})
	require.ErrorIs(t, err, ErrConflict)
}

func TestAdminAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "alpha", Password: "secret", IsSudo: true})
	require.NoError(t, err)

	op, err := f.admins.Authenticate(ctx, "alpha", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alpha", op.Username)
	assert.True(t, op.IsSudo)

	_, err = f.admins.Authenticate(ctx, "alpha", "wrong")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.admins.Authenticate(ctx, "ghost", "secret")
	require.ErrorIs(t, err, ErrNotFound)

	// 内置 system 账号口令哈希为空，永远不能登录。
	_, err = f.admins.Authenticate(ctx, "system", "")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAdminAuthenticateRejectsDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "alpha", Password: "secret"})
	require.NoError(t, err)

	disabled := true
	_, err = f.admins.Modify(ctx, SystemOperator, "alpha", AdminModifyInput{IsDisabled: &disabled})
	require.NoError(t, err)

	_, err = f.admins.Authenticate(ctx, "alpha", "secret")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAdminModifyAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "alpha", Password: "secret"})
	require.NoError(t, err)
	_, err = f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "beta", Password: "secret", IsSudo: true})
	require.NoError(t, err)
	_, err = f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "gamma", Password: "secret", IsSudo: true})
	require.NoError(t, err)

	// 非 sudo 不能改别人。
	pw := "newpass"
	_, err = f.admins.Modify(ctx, Operator{Username: "alpha"}, "beta", AdminModifyInput{Password: &pw})
	require.ErrorIs(t, err, ErrForbidden)

	// 非 sudo 可以改自己的口令，但不能改自己的 sudo 或停用位。
	_, err = f.admins.Modify(ctx, Operator{Username: "alpha"}, "alpha", AdminModifyInput{Password: &pw})
	require.NoError(t, err)
	sudo := true
	_, err = f.admins.Modify(ctx, Operator{Username: "alpha"}, "alpha", AdminModifyInput{IsSudo: &sudo})
	require.ErrorIs(t, err, ErrForbidden)

	// 普通 sudo 不能修改其它 sudo 账号，防止平级互踢。
	_, err = f.admins.Modify(ctx, Operator{Username: "beta", IsSudo: true}, "gamma", AdminModifyInput{Password: &pw})
	require.ErrorIs(t, err, ErrForbidden)

	// 普通 sudo 改自己也只能改口令，权限位要系统身份来动。
	notSudo := false
	_, err = f.admins.Modify(ctx, Operator{Username: "beta", IsSudo: true}, "beta", AdminModifyInput{IsSudo: &notSudo})
	require.ErrorIs(t, err, ErrForbidden)
	off := true
	_, err = f.admins.Modify(ctx, Operator{Username: "beta", IsSudo: true}, "beta", AdminModifyInput{IsDisabled: &off})
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.admins.Modify(ctx, Operator{Username: "beta", IsSudo: true}, "beta", AdminModifyInput{Password: &pw})
	require.NoError(t, err)

	// 系统身份可以。
	_, err = f.admins.Modify(ctx, SystemOperator, "gamma", AdminModifyInput{Password: &pw})
	require.NoError(t, err)
	view, err := f.admins.Modify(ctx, SystemOperator, "gamma", AdminModifyInput{IsSudo: &notSudo})
	require.NoError(t, err)
	assert.False(t, view.IsSudo)

	// system 账号的 sudo 与停用位不可动。
	disabled := true
	_, err = f.admins.Modify(ctx, SystemOperator, "system", AdminModifyInput{IsDisabled: &disabled})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAdminRemoveGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// system 账号不可删除。
	err := f.admins.Remove(ctx, SystemOperator, "system")
	require.ErrorIs(t, err, ErrForbidden)

	// 只剩一个 sudo 时删除被拒。此时唯一的 sudo 是 system，
	// 上面已确认删不掉；再验证普通 sudo 作为最后一个时的保护。
	_, err = f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "beta", Password: "secret", IsSudo: true})
	require.NoError(t, err)
	// 现在有两个 sudo，删掉 beta 是允许的。
	require.NoError(t, f.admins.Remove(ctx, SystemOperator, "beta"))

	_, err = f.admins.Get(ctx, SystemOperator, "beta")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAdminRemoveRefusesLastSudo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "beta", Password: "secret", IsSudo: true})
	require.NoError(t, err)

	// 直接在仓储层降级保底的 system 账号，让 beta 成为唯一的 sudo。
	row, err := f.store.Admins().FindByUsername(ctx, "system")
	require.NoError(t, err)
	row.IsSudo = false
	require.NoError(t, f.store.Admins().Update(ctx, row))

	err = f.admins.Remove(ctx, SystemOperator, "beta")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAdminRemoveBlockedByOwnedUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "alpha", Password: "secret"})
	require.NoError(t, err)
	op := Operator{Username: "alpha"}
	_, err = f.users.Create(ctx, op, UserCreateInput{Username: "u1"})
	require.NoError(t, err)

	// 名下还有用户时删除返回冲突，而不是外键撞出的存储错误。
	err = f.admins.Remove(ctx, SystemOperator, "alpha")
	require.ErrorIs(t, err, ErrConflict)

	// 清空名下用户后照常删除。
	require.NoError(t, f.users.Remove(ctx, op, "u1"))
	require.NoError(t, f.admins.Remove(ctx, SystemOperator, "alpha"))
	_, err = f.admins.Get(ctx, SystemOperator, "alpha")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAdminViewNeverCarriesHashAndCountsUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "alpha", Password: "secret"})
	require.NoError(t, err)

	op := Operator{Username: "alpha"}
	_, err = f.users.Create(ctx, op, UserCreateInput{Username: "u1"})
	require.NoError(t, err)
	_, err = f.users.Create(ctx, op, UserCreateInput{Username: "u2"})
	require.NoError(t, err)

	view, err := f.admins.Get(ctx, SystemOperator, "alpha")
	require.NoError(t, err)
	assert.EqualValues(t, 2, view.UsersCount)
}

func TestAdminBulkToggleUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "alpha", Password: "secret"})
	require.NoError(t, err)

	op := Operator{Username: "alpha"}
	_, err = f.users.Create(ctx, op, UserCreateInput{Username: "u1"})
	require.NoError(t, err)
	_, err = f.users.Create(ctx, op, UserCreateInput{Username: "u2"})
	require.NoError(t, err)

	// 非 sudo 无权批量操作。
	_, err = f.admins.DisableUsers(ctx, op, "alpha")
	require.ErrorIs(t, err, ErrForbidden)

	affected, err := f.admins.DisableUsers(ctx, SystemOperator, "alpha")
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)

	view, err := f.users.Get(ctx, op, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, "disabled", view.Status)

	affected, err = f.admins.ActivateUsers(ctx, SystemOperator, "alpha")
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)

	// sudo 账号名下的用户不在批量启停范围内。
	_, err = f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "boss", Password: "secret", IsSudo: true})
	require.NoError(t, err)
	boss := Operator{Username: "boss", IsSudo: true}
	_, err = f.users.Create(ctx, boss, UserCreateInput{Username: "b1"})
	require.NoError(t, err)

	_, err = f.admins.DisableUsers(ctx, SystemOperator, "boss")
	require.ErrorIs(t, err, ErrForbidden)
	view, err = f.users.Get(ctx, boss, "b1")
	require.NoError(t, err)
	assert.EqualValues(t, "active", view.Status)
}

func TestAdminListNonSudoSeesOnlySelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "alpha", Password: "secret"})
	require.NoError(t, err)
	_, err = f.admins.Create(ctx, SystemOperator, AdminCreateInput{Username: "beta", Password: "secret"})
	require.NoError(t, err)

	result, err := f.admins.List(ctx, Operator{Username: "alpha"}, AdminListInput{})
	require.NoError(t, err)
	require.Len(t, result.Admins, 1)
	assert.Equal(t, "alpha", result.Admins[0].Username)
	assert.EqualValues(t, 1, result.Total)

	// sudo 看到全部（含 system）。
	result, err = f.admins.List(ctx, SystemOperator, AdminListInput{})
	require.NoError(t, err)
	assert.Len(t, result.Admins, 3)
	assert.EqualValues(t, 3, result.Total)
}
