package store

import (
	"context"
	"database/sql"

	"github.com/erazemk/premiki/internal/model"
)

const userColumns = `id, email, password_hash, is_admin, active, created_at`

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	return row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.Active, &u.CreatedAt)
}

// CreateUser creates a new user. The email must already be normalized.
func CreateUser(ctx context.Context, q Querier, email, passwordHash string, isAdmin, active bool) (*model.User, error) {
	existing, err := GetUserByEmail(ctx, q, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.Validationf("email %q already registered", email)
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, is_admin, active) VALUES (?, ?, ?, ?)`,
		email, passwordHash, isAdmin, active,
	)
	if err != nil {
		return nil, fail("creating user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fail("getting user id", err)
	}

	return GetUser(ctx, q, id)
}

// GetUser returns a user by ID, or nil if it does not exist.
func GetUser(ctx context.Context, q Querier, id int64) (*model.User, error) {
	u := &model.User{}
	err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id), u)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fail("getting user", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email, or nil if none is registered.
func GetUserByEmail(ctx context.Context, q Querier, email string) (*model.User, error) {
	u := &model.User{}
	err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email), u)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fail("getting user by email", err)
	}
	return u, nil
}

// ListUsers returns all users ordered by ID.
func ListUsers(ctx context.Context, q Querier) ([]model.User, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fail("listing users", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fail("scanning user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("listing users", err)
	}
	return users, nil
}

// SetUserActive activates or deactivates an account.
func SetUserActive(ctx context.Context, q Querier, id int64, active bool) error {
	result, err := q.ExecContext(ctx, `UPDATE users SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fail("updating user", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return model.NotFoundf("user %d", id)
	}
	return nil
}

// UpdateUserPassword replaces a user's password hash.
func UpdateUserPassword(ctx context.Context, q Querier, id int64, passwordHash string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id,
	)
	if err != nil {
		return fail("updating user password", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return model.NotFoundf("user %d", id)
	}
	return nil
}

// DeleteUser deletes a user who has not recorded any transfers.
func DeleteUser(ctx context.Context, q Querier, id int64) error {
	u, err := GetUser(ctx, q, id)
	if err != nil {
		return err
	}
	if u == nil {
		return model.NotFoundf("user %d", id)
	}

	var refs int
	err = q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transfers WHERE user_id = ?`, id).Scan(&refs)
	if err != nil {
		return fail("checking user transfers", err)
	}
	if refs > 0 {
		return model.Validationf("user has recorded %d transfers", refs)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fail("deleting user", err)
	}
	return nil
}

// HasAdmin reports whether any active admin account exists.
func HasAdmin(ctx context.Context, q Querier) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE is_admin = 1 AND active = 1`,
	).Scan(&n)
	if err != nil {
		return false, fail("checking for admin", err)
	}
	return n > 0, nil
}
