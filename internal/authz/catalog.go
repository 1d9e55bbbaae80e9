// Package authz implements permission-based authorization. Permissions and
// roles live in PostgreSQL; the engine snapshots the set of defined
// permission names and answers point queries "does actor X hold permission
// P" against live role-assignment data. Every undefined or unheld
// permission denies; there are no deny rules and no precedence.
package authz

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PermissionSource enumerates the currently defined permission names.
type PermissionSource interface {
	ListNames(ctx context.Context) ([]string, error)
}

// Catalog reads the permission catalog from PostgreSQL.
type Catalog struct {
	pool *pgxpool.Pool
}

// NewCatalog constructs a Catalog.
func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

// ListNames returns all distinct permission names. An empty catalog is a
// valid state and yields an empty slice, not an error.
func (c *Catalog) ListNames(ctx context.Context) ([]string, error) {
	rows, err := c.pool.Query(ctx, `SELECT DISTINCT name FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

var _ PermissionSource = (*Catalog)(nil)
