// Package report aggregates completed transfers over a time range.
package report

import (
	"context"
	"database/sql"
	"time"

	"github.com/erazemk/premiki/internal/model"
	"github.com/erazemk/premiki/internal/store"
	"github.com/google/uuid"
)

// Result is a generated report together with the range it covers.
type Result struct {
	ID          string            `json:"id"`
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	GeneratedAt time.Time         `json:"generated_at"`
	Rows        []model.ReportRow `json:"rows"`
}

// TotalQuantity sums the quantities of all rows.
func (r *Result) TotalQuantity() int {
	total := 0
	for _, row := range r.Rows {
		total += row.TotalQuantity
	}
	return total
}

// Engine generates reports from the store.
type Engine struct {
	db *sql.DB
}

// NewEngine returns an Engine reading from db.
func NewEngine(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// Generate sums line quantities of completed transfers created between start
// and end inclusive, per source, destination and item. Rows are ordered by
// source name, destination name and item name.
func (e *Engine) Generate(ctx context.Context, start, end time.Time) (*Result, error) {
	if end.Before(start) {
		return nil, model.Validationf("report end %s is before start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	rows, err := store.ReportRows(ctx, e.db, start, end)
	if err != nil {
		return nil, err
	}

	return &Result{
		ID:          uuid.NewString(),
		Start:       start.UTC(),
		End:         end.UTC(),
		GeneratedAt: time.Now().UTC(),
		Rows:        rows,
	}, nil
}
