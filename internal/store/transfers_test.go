package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/erazemk/premiki/internal/db"
	"github.com/erazemk/premiki/internal/model"
)

// fixture holds a user and two locations for transfer tests.
type fixture struct {
	db   *sql.DB
	user *model.User
	a, b *model.Location
}

func newFixture(t *testing.T, database *sql.DB) *fixture {
	t.Helper()
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "clerk@example.com", "hash", false, true)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	a, err := CreateLocation(ctx, database, "A")
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}
	b, err := CreateLocation(ctx, database, "B")
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}
	return &fixture{db: database, user: user, a: a, b: b}
}

func (f *fixture) transfer(t *testing.T, from, to int64, completed bool, created time.Time, lines ...model.LineItem) int64 {
	t.Helper()
	ctx := context.Background()

	id, err := InsertTransfer(ctx, f.db, &model.Transfer{
		FromLocationID: from,
		ToLocationID:   to,
		UserID:         f.user.ID,
		DateCreated:    created,
		Completed:      completed,
	})
	if err != nil {
		t.Fatalf("InsertTransfer: %v", err)
	}
	if err := InsertTransferItems(ctx, f.db, id, lines); err != nil {
		t.Fatalf("InsertTransferItems: %v", err)
	}
	return id
}

func TestInsertAndGetTransfer(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	f := newFixture(t, database)

	widget, _ := CreateItem(ctx, database, "Widget")
	created := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	id := f.transfer(t, f.a.ID, f.b.ID, false, created,
		model.LineItem{ItemID: widget.ID, Quantity: 3},
		model.LineItem{ItemID: widget.ID, Quantity: 2},
	)

	got, err := GetTransfer(ctx, database, id)
	if err != nil {
		t.Fatalf("GetTransfer: %v", err)
	}
	if got.FromLocationName != "A" || got.ToLocationName != "B" {
		t.Errorf("unexpected location names %q -> %q", got.FromLocationName, got.ToLocationName)
	}
	if got.UserEmail != "clerk@example.com" {
		t.Errorf("unexpected user email %q", got.UserEmail)
	}
	if !got.DateCreated.Equal(created) {
		t.Errorf("expected date_created %v, got %v", created, got.DateCreated)
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected duplicate lines kept separately, got %d", len(got.Items))
	}
	if got.Items[0].ItemName != "Widget" || got.TotalQuantity() != 5 {
		t.Errorf("unexpected lines %+v", got.Items)
	}

	missing, err := GetTransfer(ctx, database, id+1)
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing transfer, got %v, %v", missing, err)
	}
}

func TestListTransfersFilterAndOrder(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	f := newFixture(t, database)

	widget, _ := CreateItem(ctx, database, "Widget")
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	older := f.transfer(t, f.a.ID, f.b.ID, true, base, model.LineItem{ItemID: widget.ID, Quantity: 1})
	newer := f.transfer(t, f.b.ID, f.a.ID, false, base.Add(time.Hour), model.LineItem{ItemID: widget.ID, Quantity: 4})
	empty := f.transfer(t, f.a.ID, f.a.ID, false, base.Add(2*time.Hour))

	all, err := ListTransfers(ctx, database, model.FilterAll)
	if err != nil {
		t.Fatalf("ListTransfers: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 transfers, got %d", len(all))
	}
	if all[0].ID != empty || all[1].ID != newer || all[2].ID != older {
		t.Errorf("expected newest first, got ids %d, %d, %d", all[0].ID, all[1].ID, all[2].ID)
	}
	if all[0].Items == nil || len(all[0].Items) != 0 {
		t.Errorf("expected empty non-nil lines, got %#v", all[0].Items)
	}
	if all[1].TotalQuantity() != 4 {
		t.Errorf("expected lines attached to their transfer, got %+v", all[1].Items)
	}

	completed, _ := ListTransfers(ctx, database, model.FilterCompleted)
	if len(completed) != 1 || completed[0].ID != older {
		t.Errorf("expected only the completed transfer, got %+v", completed)
	}

	open, _ := ListTransfers(ctx, database, model.FilterNotCompleted)
	if len(open) != 2 {
		t.Errorf("expected 2 open transfers, got %d", len(open))
	}
}

func TestDeleteTransferRemovesLines(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	f := newFixture(t, database)

	widget, _ := CreateItem(ctx, database, "Widget")
	id := f.transfer(t, f.a.ID, f.b.ID, false, time.Now(),
		model.LineItem{ItemID: widget.ID, Quantity: 1},
		model.LineItem{ItemID: widget.ID, Quantity: 2},
	)

	ok, err := DeleteTransfer(ctx, database, id)
	if err != nil || !ok {
		t.Fatalf("DeleteTransfer: %v, %v", ok, err)
	}

	var orphans int
	database.QueryRowContext(ctx, `SELECT COUNT(*) FROM transfer_items WHERE transfer_id = ?`, id).Scan(&orphans)
	if orphans != 0 {
		t.Errorf("expected no orphaned lines, got %d", orphans)
	}

	ok, err = DeleteTransfer(ctx, database, id)
	if err != nil || ok {
		t.Errorf("expected false for second delete, got %v, %v", ok, err)
	}
}

func TestSetTransferCompletedAndLocations(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	f := newFixture(t, database)

	id := f.transfer(t, f.a.ID, f.b.ID, false, time.Now())

	if ok, err := SetTransferCompleted(ctx, database, id, true); err != nil || !ok {
		t.Fatalf("SetTransferCompleted: %v, %v", ok, err)
	}
	if ok, err := UpdateTransferLocations(ctx, database, id, f.b.ID, f.a.ID); err != nil || !ok {
		t.Fatalf("UpdateTransferLocations: %v, %v", ok, err)
	}

	got, _ := GetTransfer(ctx, database, id)
	if !got.Completed || got.FromLocationID != f.b.ID || got.ToLocationID != f.a.ID {
		t.Errorf("unexpected transfer %+v", got)
	}

	if ok, _ := SetTransferCompleted(ctx, database, id+1, true); ok {
		t.Error("expected false for unknown transfer")
	}
}

func TestReportRows(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	f := newFixture(t, database)

	widget, _ := CreateItem(ctx, database, "Widget")
	bolt, _ := CreateItem(ctx, database, "Bolt")
	day := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	f.transfer(t, f.a.ID, f.b.ID, true, day, model.LineItem{ItemID: widget.ID, Quantity: 2})
	f.transfer(t, f.a.ID, f.b.ID, true, day.Add(time.Minute),
		model.LineItem{ItemID: widget.ID, Quantity: 5},
		model.LineItem{ItemID: bolt.ID, Quantity: 1},
	)
	f.transfer(t, f.b.ID, f.a.ID, false, day, model.LineItem{ItemID: widget.ID, Quantity: 100})
	f.transfer(t, f.b.ID, f.a.ID, true, day.Add(48*time.Hour), model.LineItem{ItemID: widget.ID, Quantity: 9})

	rows, err := ReportRows(ctx, database, day, day.Add(time.Minute))
	if err != nil {
		t.Fatalf("ReportRows: %v", err)
	}
	want := []model.ReportRow{
		{FromLocation: "A", ToLocation: "B", Item: "Bolt", TotalQuantity: 1},
		{FromLocation: "A", ToLocation: "B", Item: "Widget", TotalQuantity: 7},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %+v", len(want), rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d: got %+v, want %+v", i, rows[i], want[i])
		}
	}

	empty, err := ReportRows(ctx, database, day.Add(-48*time.Hour), day.Add(-time.Hour))
	if err != nil {
		t.Fatalf("ReportRows: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil rows, got %#v", empty)
	}
}
