package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/silverlode/fleetpanel/internal/bootstrap"
	"github.com/silverlode/fleetpanel/internal/migrations"
	"github.com/silverlode/fleetpanel/internal/repository/sqlite"
	"github.com/silverlode/fleetpanel/internal/support/hash"
)

// fixture 把服务层挂在一个临时 SQLite 库上，用真实仓储跑完整链路。
type fixture struct {
	store  *sqlite.Store
	hasher hash.Hasher
	admins AdminService
	users  UserService
	nodes  NodeService
	usage  UsageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := bootstrap.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Up(db))

	store := sqlite.NewStore(db)
	hasher := hash.MustBcryptHasher(bcrypt.MinCost)
	return &fixture{
		store:  store,
		hasher: hasher,
		admins: NewAdminService(store.Admins(), store.Users(), hasher, nil, nil),
		users:  NewUserService(store.Users(), store.Admins(), store.Usage(), nil),
		nodes:  NewNodeService(store.Nodes(), nil),
		usage:  NewUsageService(store.Users(), store.Admins(), store.Nodes(), store.Usage(), nil),
	}
}
