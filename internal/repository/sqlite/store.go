// 文件路径: internal/repository/sqlite/store.go
// 模块说明: 这是 internal 模块里的 store 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package sqlite

import (
	"database/sql"

	"github.com/silverlode/fleetpanel/internal/repository"
)

// Store wires SQLite-backed repository implementations.
type Store struct {
	db     *sql.DB
	admins repository.AdminRepository
	users  repository.UserRepository
	nodes  repository.NodeRepository
	usage  repository.UsageRepository
	stats  repository.StatsRepository
}

// NewStore constructs a SQLite-backed repository store.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:     db,
		admins: &adminRepo{db: db},
		users:  &userRepo{db: db},
		nodes:  &nodeRepo{db: db},
		usage:  &usageRepo{db: db},
		stats:  &statsRepo{db: db},
	}
}

func (s *Store) Admins() repository.AdminRepository {
	return s.admins
}

func (s *Store) Users() repository.UserRepository {
	return s.users
}

func (s *Store) Nodes() repository.NodeRepository {
	return s.nodes
}

func (s *Store) Usage() repository.UsageRepository {
	return s.usage
}

func (s *Store) Stats() repository.StatsRepository {
	return s.stats
}

// DB exposes the raw handle for maintenance commands (backup, migrate).
func (s *Store) DB() *sql.DB {
	return s.db
}
