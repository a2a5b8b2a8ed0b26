package store

import (
	"context"
	"testing"

	"github.com/erazemk/premiki/internal/db"
)

func TestJWTSecretGeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret1, err := JWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	secret2, err := JWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestPutAndGetSetting(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if v, err := GetSetting(ctx, database, "missing"); err != nil || v != "" {
		t.Errorf("expected empty value for missing key, got %q, %v", v, err)
	}

	PutSetting(ctx, database, "k", "one")
	PutSetting(ctx, database, "k", "two")

	v, err := GetSetting(ctx, database, "k")
	if err != nil {
		t.Fatal(err)
	}
	if v != "two" {
		t.Errorf("expected overwritten value 'two', got %q", v)
	}
}
