package store

import (
	"context"
	"database/sql"

	"github.com/erazemk/premiki/internal/model"
)

const transferColumns = `t.id, t.from_location_id, t.to_location_id, t.user_id, t.date_created, t.completed,
	fl.name AS from_location_name, tl.name AS to_location_name, u.email AS user_email`

const transferJoins = `FROM transfers t
	JOIN locations fl ON fl.id = t.from_location_id
	JOIN locations tl ON tl.id = t.to_location_id
	JOIN users u ON u.id = t.user_id`

// InsertTransfer records a transfer header and returns its ID. Lines are
// written separately with InsertTransferItems.
func InsertTransfer(ctx context.Context, q Querier, t *model.Transfer) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO transfers (from_location_id, to_location_id, user_id, date_created, completed)
		 VALUES (?, ?, ?, ?, ?)`,
		t.FromLocationID, t.ToLocationID, t.UserID, dbTime(t.DateCreated), t.Completed,
	)
	if err != nil {
		return 0, fail("recording transfer", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fail("getting transfer id", err)
	}
	return id, nil
}

// InsertTransferItems appends one line per entry to a transfer.
func InsertTransferItems(ctx context.Context, q Querier, transferID int64, lines []model.LineItem) error {
	for _, l := range lines {
		_, err := q.ExecContext(ctx,
			`INSERT INTO transfer_items (transfer_id, item_id, quantity) VALUES (?, ?, ?)`,
			transferID, l.ItemID, l.Quantity,
		)
		if err != nil {
			return fail("recording transfer line", err)
		}
	}
	return nil
}

// DeleteTransferItems removes every line of a transfer.
func DeleteTransferItems(ctx context.Context, q Querier, transferID int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM transfer_items WHERE transfer_id = ?`, transferID); err != nil {
		return fail("deleting transfer lines", err)
	}
	return nil
}

// UpdateTransferLocations replaces the source and destination of a transfer.
// Reports false if the transfer does not exist.
func UpdateTransferLocations(ctx context.Context, q Querier, id, fromLocationID, toLocationID int64) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE transfers SET from_location_id = ?, to_location_id = ? WHERE id = ?`,
		fromLocationID, toLocationID, id,
	)
	if err != nil {
		return false, fail("updating transfer", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// SetTransferCompleted sets the completion flag. Reports false if the
// transfer does not exist.
func SetTransferCompleted(ctx context.Context, q Querier, id int64, completed bool) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE transfers SET completed = ? WHERE id = ?`, completed, id,
	)
	if err != nil {
		return false, fail("updating transfer completion", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// DeleteTransfer deletes a transfer and its lines. Reports false if the
// transfer does not exist.
func DeleteTransfer(ctx context.Context, q Querier, id int64) (bool, error) {
	if err := DeleteTransferItems(ctx, q, id); err != nil {
		return false, err
	}

	result, err := q.ExecContext(ctx, `DELETE FROM transfers WHERE id = ?`, id)
	if err != nil {
		return false, fail("deleting transfer", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// TransferExists reports whether a transfer with the given ID exists.
func TransferExists(ctx context.Context, q Querier, id int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transfers WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fail("checking transfer", err)
	}
	return n > 0, nil
}

// GetTransfer returns a transfer with its lines, or nil if it does not exist.
func GetTransfer(ctx context.Context, q Querier, id int64) (*model.Transfer, error) {
	t := &model.Transfer{}
	err := q.QueryRowContext(ctx,
		`SELECT `+transferColumns+` `+transferJoins+` WHERE t.id = ?`, id,
	).Scan(&t.ID, &t.FromLocationID, &t.ToLocationID, &t.UserID, &t.DateCreated, &t.Completed,
		&t.FromLocationName, &t.ToLocationName, &t.UserEmail)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fail("getting transfer", err)
	}

	lines, err := listTransferItems(ctx, q, `WHERE ti.transfer_id = ?`, id)
	if err != nil {
		return nil, err
	}
	t.Items = lines[id]
	if t.Items == nil {
		t.Items = []model.TransferItem{}
	}
	return t, nil
}

// ListTransfers returns transfers matching the filter, newest first, each
// with its lines.
func ListTransfers(ctx context.Context, q Querier, filter model.TransferFilter) ([]model.Transfer, error) {
	where := ``
	switch filter {
	case model.FilterCompleted:
		where = `WHERE t.completed = 1`
	case model.FilterNotCompleted:
		where = `WHERE t.completed = 0`
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+transferColumns+` `+transferJoins+` `+where+`
		 ORDER BY t.date_created DESC, t.id DESC`,
	)
	if err != nil {
		return nil, fail("listing transfers", err)
	}
	defer rows.Close()

	var transfers []model.Transfer
	for rows.Next() {
		var t model.Transfer
		if err := rows.Scan(&t.ID, &t.FromLocationID, &t.ToLocationID, &t.UserID, &t.DateCreated, &t.Completed,
			&t.FromLocationName, &t.ToLocationName, &t.UserEmail); err != nil {
			return nil, fail("scanning transfer", err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("listing transfers", err)
	}
	rows.Close()

	lines, err := listTransferItems(ctx, q,
		`JOIN transfers t ON t.id = ti.transfer_id `+where)
	if err != nil {
		return nil, err
	}
	for i := range transfers {
		transfers[i].Items = lines[transfers[i].ID]
		if transfers[i].Items == nil {
			transfers[i].Items = []model.TransferItem{}
		}
	}
	return transfers, nil
}

// listTransferItems loads lines grouped by transfer ID. clause is appended
// after the items join and may reference ti and t.
func listTransferItems(ctx context.Context, q Querier, clause string, args ...any) (map[int64][]model.TransferItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT ti.id, ti.transfer_id, ti.item_id, ti.quantity, i.name AS item_name
		 FROM transfer_items ti
		 JOIN items i ON i.id = ti.item_id
		 `+clause+`
		 ORDER BY ti.id`, args...,
	)
	if err != nil {
		return nil, fail("listing transfer lines", err)
	}
	defer rows.Close()

	lines := make(map[int64][]model.TransferItem)
	for rows.Next() {
		var it model.TransferItem
		if err := rows.Scan(&it.ID, &it.TransferID, &it.ItemID, &it.Quantity, &it.ItemName); err != nil {
			return nil, fail("scanning transfer line", err)
		}
		lines[it.TransferID] = append(lines[it.TransferID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("listing transfer lines", err)
	}
	return lines, nil
}
