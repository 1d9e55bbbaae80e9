package authz

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AssignmentSource answers whether an actor holds a permission through any
// of its roles.
type AssignmentSource interface {
	ActorHasPermission(ctx context.Context, actorID int64, permission string) (bool, error)
}

// Assignments reads actor-role-permission membership from PostgreSQL.
type Assignments struct {
	pool *pgxpool.Pool
}

// NewAssignments constructs an Assignments accessor.
func NewAssignments(pool *pgxpool.Pool) *Assignments {
	return &Assignments{pool: pool}
}

// ActorHasPermission reports whether at least one role attached to the
// actor carries a permission with the given name. It is a single existence
// query; permission lists are never materialized, so per-check cost stays
// bounded regardless of how many roles or permissions exist. An actor with
// no rows simply yields false.
func (a *Assignments) ActorHasPermission(ctx context.Context, actorID int64, permission string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM user_roles ur
			JOIN role_permissions rp ON rp.role_id = ur.role_id
			JOIN permissions p ON p.id = rp.permission_id
			WHERE ur.user_id = $1 AND p.name = $2
		)`
	var held bool
	if err := a.pool.QueryRow(ctx, query, actorID, permission).Scan(&held); err != nil {
		return false, err
	}
	return held, nil
}

var _ AssignmentSource = (*Assignments)(nil)
