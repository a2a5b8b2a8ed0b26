package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/premiki/internal/db"
	"github.com/erazemk/premiki/internal/model"
)

func TestInTxRollsBackOnError(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := InTx(ctx, database, "test", func(tx *sql.Tx) error {
		if _, err := CreateLocation(ctx, tx, "Warehouse"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error to pass through, got %v", err)
	}

	locations, _ := ListLocations(ctx, database)
	if len(locations) != 0 {
		t.Errorf("expected rollback to leave no locations, got %d", len(locations))
	}
}

func TestInTxPassesDomainErrorsThrough(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	err := InTx(ctx, database, "test", func(tx *sql.Tx) error {
		return model.NotFoundf("transfer %d", 7)
	})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, model.ErrStorage) {
		t.Errorf("domain error must not be reported as storage failure")
	}
}

func TestInTxClosedDatabase(t *testing.T) {
	database := db.NewTestDB(t)
	database.Close()

	err := InTx(context.Background(), database, "test", func(tx *sql.Tx) error { return nil })
	if !errors.Is(err, model.ErrStorage) {
		t.Errorf("expected storage error on closed database, got %v", err)
	}
}

func TestDBTimeFixedWidth(t *testing.T) {
	a := dbTime(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	b := dbTime(time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC))
	if len(a) != len(b) {
		t.Fatalf("expected equal widths, got %q and %q", a, b)
	}
	if !(a < b) {
		t.Errorf("expected %q < %q", a, b)
	}

	local := time.FixedZone("CET", 3600)
	c := dbTime(time.Date(2024, 3, 1, 13, 0, 0, 0, local))
	if c != a {
		t.Errorf("expected times to be normalized to UTC, got %q want %q", c, a)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := map[int]string{0: "", 1: "?", 3: "?,?,?"}
	for n, want := range tests {
		if got := placeholders(n); got != want {
			t.Errorf("placeholders(%d) = %q, want %q", n, got, want)
		}
	}
}
