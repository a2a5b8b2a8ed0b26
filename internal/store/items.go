package store

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"strings"

	"github.com/erazemk/premiki/internal/model"
)

// CreateItem creates a new item. Names are unique.
func CreateItem(ctx context.Context, q Querier, name string) (*model.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.Validationf("item name required")
	}

	taken, err := itemNameTaken(ctx, q, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, model.Validationf("item %q already exists", name)
	}

	result, err := q.ExecContext(ctx, `INSERT INTO items (name) VALUES (?)`, name)
	if err != nil {
		return nil, fail("creating item", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fail("getting item id", err)
	}

	return GetItem(ctx, q, id)
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, q Querier, id int64) (*model.Item, error) {
	item := &model.Item{}
	var imageMime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT id, name, image_mime, created_at FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Name, &imageMime, &item.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fail("getting item", err)
	}
	item.ImageMime = imageMime.String
	return item, nil
}

// ItemExists reports whether an item with the given ID exists.
func ItemExists(ctx context.Context, q Querier, id int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fail("checking item", err)
	}
	return n > 0, nil
}

// ExistingItems returns the subset of ids that name existing items.
func ExistingItems(ctx context.Context, q Querier, ids []int64) (map[int64]bool, error) {
	found := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id FROM items WHERE id IN (`+placeholders(len(ids))+`)`, args...,
	)
	if err != nil {
		return nil, fail("checking items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fail("scanning item id", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fail("checking items", err)
	}
	return found, nil
}

// ListItems returns items ordered by name. A non-empty search keeps only
// names containing it, ignoring ASCII case.
func ListItems(ctx context.Context, q Querier, search string) ([]model.Item, error) {
	query := `SELECT id, name, image_mime, created_at FROM items`
	var args []any

	if search = strings.TrimSpace(search); search != "" {
		query += ` WHERE name LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(search)+"%")
	}
	query += ` ORDER BY name`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fail("listing items", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		var imageMime sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &imageMime, &item.CreatedAt); err != nil {
			return nil, fail("scanning item", err)
		}
		item.ImageMime = imageMime.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("listing items", err)
	}
	return items, nil
}

// UpdateItem renames an item.
func UpdateItem(ctx context.Context, q Querier, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Validationf("item name required")
	}

	taken, err := itemNameTaken(ctx, q, name, id)
	if err != nil {
		return err
	}
	if taken {
		return model.Validationf("item %q already exists", name)
	}

	result, err := q.ExecContext(ctx, `UPDATE items SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fail("updating item", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return model.NotFoundf("item %d", id)
	}
	return nil
}

// DeleteItem deletes an item. Fails if any transfer line references it.
func DeleteItem(ctx context.Context, q Querier, id int64) error {
	exists, err := ItemExists(ctx, q, id)
	if err != nil {
		return err
	}
	if !exists {
		return model.NotFoundf("item %d", id)
	}

	var refs int
	err = q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfer_items WHERE item_id = ?`, id,
	).Scan(&refs)
	if err != nil {
		return fail("checking item transfers", err)
	}
	if refs > 0 {
		return model.Validationf("item is used by %d transfer lines", refs)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fail("deleting item", err)
	}
	return nil
}

// ReadItemNames splits an import file into lines, one item name per line.
func ReadItemNames(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, model.Validationf("reading item list: %v", err)
	}
	return lines, nil
}

// ImportItems creates one item per distinct non-empty line that does not
// already name an item, and returns how many were created.
func ImportItems(ctx context.Context, db *sql.DB, lines []string) (int, error) {
	created := 0
	err := InTx(ctx, db, "item import", func(tx *sql.Tx) error {
		seen := make(map[string]bool, len(lines))
		for _, line := range lines {
			name := strings.TrimSpace(line)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true

			result, err := tx.ExecContext(ctx,
				`INSERT INTO items (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name,
			)
			if err != nil {
				return fail("importing item", err)
			}
			if n, _ := result.RowsAffected(); n > 0 {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, q Querier, id int64, image []byte, mime string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ? WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fail("setting item image", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return model.NotFoundf("item %d", id)
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type. Data is nil when
// the item has no image or does not exist.
func GetItemImage(ctx context.Context, q Querier, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fail("getting item image", err)
	}
	return image, mime.String, nil
}

func itemNameTaken(ctx context.Context, q Querier, name string, exceptID int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE name = ? AND id != ?`, name, exceptID,
	).Scan(&n)
	if err != nil {
		return false, fail("checking item name", err)
	}
	return n > 0, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
