package store

import (
	"context"
	"time"

	"github.com/erazemk/premiki/internal/model"
)

// ReportRows sums line quantities of completed transfers created within
// [start, end], grouped and ordered by source name, destination name and item
// name. Names compare with SQLite's default binary collation.
func ReportRows(ctx context.Context, q Querier, start, end time.Time) ([]model.ReportRow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT fl.name, tl.name, i.name, SUM(ti.quantity)
		 FROM transfers t
		 JOIN transfer_items ti ON ti.transfer_id = t.id
		 JOIN items i ON i.id = ti.item_id
		 JOIN locations fl ON fl.id = t.from_location_id
		 JOIN locations tl ON tl.id = t.to_location_id
		 WHERE t.completed = 1 AND t.date_created >= ? AND t.date_created <= ?
		 GROUP BY fl.name, tl.name, i.name
		 ORDER BY fl.name, tl.name, i.name`,
		dbTime(start), dbTime(end),
	)
	if err != nil {
		return nil, fail("querying report", err)
	}
	defer rows.Close()

	result := []model.ReportRow{}
	for rows.Next() {
		var r model.ReportRow
		if err := rows.Scan(&r.FromLocation, &r.ToLocation, &r.Item, &r.TotalQuantity); err != nil {
			return nil, fail("scanning report row", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("querying report", err)
	}
	return result, nil
}
