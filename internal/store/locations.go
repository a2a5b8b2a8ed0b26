package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/erazemk/premiki/internal/model"
)

// CreateLocation creates a new location. Names are unique.
func CreateLocation(ctx context.Context, q Querier, name string) (*model.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.Validationf("location name required")
	}

	taken, err := locationNameTaken(ctx, q, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, model.Validationf("location %q already exists", name)
	}

	result, err := q.ExecContext(ctx, `INSERT INTO locations (name) VALUES (?)`, name)
	if err != nil {
		return nil, fail("creating location", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fail("getting location id", err)
	}

	return GetLocation(ctx, q, id)
}

// GetLocation returns a location by ID, or nil if it does not exist.
func GetLocation(ctx context.Context, q Querier, id int64) (*model.Location, error) {
	l := &model.Location{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM locations WHERE id = ?`, id,
	).Scan(&l.ID, &l.Name, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fail("getting location", err)
	}
	return l, nil
}

// LocationExists reports whether a location with the given ID exists.
func LocationExists(ctx context.Context, q Querier, id int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM locations WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fail("checking location", err)
	}
	return n > 0, nil
}

// ListLocations returns all locations ordered by name.
func ListLocations(ctx context.Context, q Querier) ([]model.Location, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, created_at FROM locations ORDER BY name`,
	)
	if err != nil {
		return nil, fail("listing locations", err)
	}
	defer rows.Close()

	var locations []model.Location
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.CreatedAt); err != nil {
			return nil, fail("scanning location", err)
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("listing locations", err)
	}
	return locations, nil
}

// UpdateLocation renames a location.
func UpdateLocation(ctx context.Context, q Querier, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Validationf("location name required")
	}

	taken, err := locationNameTaken(ctx, q, name, id)
	if err != nil {
		return err
	}
	if taken {
		return model.Validationf("location %q already exists", name)
	}

	result, err := q.ExecContext(ctx, `UPDATE locations SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fail("updating location", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return model.NotFoundf("location %d", id)
	}
	return nil
}

// DeleteLocation deletes a location. Fails if any transfer starts or ends there.
func DeleteLocation(ctx context.Context, q Querier, id int64) error {
	exists, err := LocationExists(ctx, q, id)
	if err != nil {
		return err
	}
	if !exists {
		return model.NotFoundf("location %d", id)
	}

	var refs int
	err = q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfers WHERE from_location_id = ? OR to_location_id = ?`,
		id, id,
	).Scan(&refs)
	if err != nil {
		return fail("checking location transfers", err)
	}
	if refs > 0 {
		return model.Validationf("location is used by %d transfers", refs)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id); err != nil {
		return fail("deleting location", err)
	}
	return nil
}

// locationNameTaken reports whether another location already uses name.
func locationNameTaken(ctx context.Context, q Querier, name string, exceptID int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM locations WHERE name = ? AND id != ?`, name, exceptID,
	).Scan(&n)
	if err != nil {
		return false, fail("checking location name", err)
	}
	return n > 0, nil
}
