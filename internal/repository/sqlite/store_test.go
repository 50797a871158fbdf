package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silverlode/fleetpanel/internal/bootstrap"
	"github.com/silverlode/fleetpanel/internal/migrations"
	"github.com/silverlode/fleetpanel/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := bootstrap.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Up(db))
	return NewStore(db)
}

func seedAdmin(t *testing.T, store *Store, username string, sudo bool) *repository.Admin {
	t.Helper()
	admin, err := store.Admins().Create(context.Background(), &repository.Admin{
		Username:     username,
		PasswordHash: "x",
		IsSudo:       sudo,
	})
	require.NoError(t, err)
	return admin
}

func seedUser(t *testing.T, store *Store, username string, adminID int64, mutate func(*repository.User)) *repository.User {
	t.Helper()
	user := &repository.User{Username: username, AdminID: adminID}
	if mutate != nil {
		mutate(user)
	}
	created, err := store.Users().Create(context.Background(), user)
	require.NoError(t, err)
	return created
}

func seedNode(t *testing.T, store *Store, name, apiKey string, port int) *repository.Node {
	t.Helper()
	node, err := store.Nodes().Create(context.Background(), &repository.Node{
		Name:    name,
		Address: "10.0.0.1",
		Port:    port,
		APIKey:  apiKey,
	})
	require.NoError(t, err)
	return node
}

func TestStoreSeedsSystemAdmin(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	system, err := store.Admins().FindByUsername(ctx, "system")
	require.NoError(t, err)
	require.True(t, system.IsSudo)
	require.Empty(t, system.PasswordHash)

	count, err := store.Admins().CountSudo(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}
