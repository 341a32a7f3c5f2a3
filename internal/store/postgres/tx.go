// Package postgres wires the per-feature repositories to a shared *sql.DB
// and exposes the transaction runners the services depend on.
package postgres

import (
	"context"
	"database/sql"

	authservice "tenantadmin/internal/auth/service"
	"tenantadmin/internal/db"
	membershiprepo "tenantadmin/internal/membership/repository"
	orgrepo "tenantadmin/internal/organization/repository"
	userrepo "tenantadmin/internal/user/repository"
	userservice "tenantadmin/internal/user/service"
)

// AuthTxRunner implements the auth service's TxRunner over a Postgres pool.
type AuthTxRunner struct {
	db *sql.DB
}

// NewAuthTxRunner returns a TxRunner for signup's user+org+membership create.
func NewAuthTxRunner(sqlDB *sql.DB) *AuthTxRunner {
	return &AuthTxRunner{db: sqlDB}
}

// WithinTx runs fn against repositories bound to a single transaction.
func (r *AuthTxRunner) WithinTx(ctx context.Context, fn func(authservice.TxRepos) error) error {
	return db.WithinTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(authservice.TxRepos{
			Users:       userrepo.NewPostgresRepository(tx),
			Orgs:        orgrepo.NewPostgresRepository(tx),
			Memberships: membershiprepo.NewPostgresRepository(tx),
		})
	})
}

// UserTxRunner implements the user service's TxRunner over a Postgres pool.
type UserTxRunner struct {
	db *sql.DB
}

// NewUserTxRunner returns a TxRunner for user administration writes that need
// the owner-count lock and multi-record creates.
func NewUserTxRunner(sqlDB *sql.DB) *UserTxRunner {
	return &UserTxRunner{db: sqlDB}
}

// WithinTx runs fn against repositories bound to a single transaction.
func (r *UserTxRunner) WithinTx(ctx context.Context, fn func(userservice.TxRepos) error) error {
	return db.WithinTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(userservice.TxRepos{
			Users:       userrepo.NewPostgresRepository(tx),
			Memberships: membershiprepo.NewPostgresRepository(tx),
		})
	})
}
