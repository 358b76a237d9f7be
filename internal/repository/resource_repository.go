package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/coworking-booking/internal/model"
)

// ResourceRepo provides read access to locations and bookable
// resources.  Reference data is managed out of band (seed scripts,
// staff tooling); the engine only reads it.
type ResourceRepo struct {
	q dbtx
}

// NewResourceRepo returns a repo bound to a database or transaction.
func NewResourceRepo(q dbtx) *ResourceRepo { return &ResourceRepo{q: q} }

// ListLocations returns all active locations.
func (r *ResourceRepo) ListLocations(ctx context.Context) ([]*model.Location, error) {
	const q = `SELECT id, name, address, is_active, created_at FROM locations
		WHERE is_active = 1 ORDER BY name`
	rows, err := r.q.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Location, 0)
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.IsActive, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByLocation returns the active resources of one location.
func (r *ResourceRepo) ListByLocation(ctx context.Context, locationID uint64) ([]*model.Resource, error) {
	const q = `SELECT id, location_id, name, category, capacity, is_active, created_at
		FROM resources WHERE location_id = ? AND is_active = 1 ORDER BY name`
	rows, err := r.q.QueryContext(ctx, q, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Resource, 0)
	for rows.Next() {
		var res model.Resource
		if err := rows.Scan(&res.ID, &res.LocationID, &res.Name, &res.Category, &res.Capacity, &res.IsActive, &res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID loads one active resource or ErrResourceNotFound.
func (r *ResourceRepo) GetByID(ctx context.Context, id uint64) (*model.Resource, error) {
	const q = `SELECT id, location_id, name, category, capacity, is_active, created_at
		FROM resources WHERE id = ? AND is_active = 1`
	var res model.Resource
	err := r.q.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.LocationID, &res.Name, &res.Category, &res.Capacity, &res.IsActive, &res.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: resource %d", ErrResourceNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CategoriesByID resolves the categories of a set of resources in one
// query, for building pricing tokens out of a raw selection.
func (r *ResourceRepo) CategoriesByID(ctx context.Context, ids []uint64) (map[uint64]model.ResourceCategory, error) {
	out := make(map[uint64]model.ResourceCategory, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q := `SELECT id, category FROM resources WHERE is_active = 1 AND id IN (`
	args := make([]interface{}, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			q += ","
		}
		q += "?"
		args = append(args, id)
	}
	q += ")"
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		var cat model.ResourceCategory
		if err := rows.Scan(&id, &cat); err != nil {
			return nil, err
		}
		out[id] = cat
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
