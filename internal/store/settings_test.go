package store

import (
	"context"
	"testing"

	"github.com/erazemk/auditmagic/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	// First call should generate a secret.
	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 == "" {
		t.Fatal("expected non-empty secret")
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	// Second call should return the same secret.
	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestBoolSetting(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	got, err := GetBoolSetting(ctx, database, SettingSaveHistory, true)
	if err != nil {
		t.Fatalf("GetBoolSetting: %v", err)
	}
	if !got {
		t.Error("expected default when unset")
	}

	if err := SetSetting(ctx, database, SettingSaveHistory, "false"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	got, _ = GetBoolSetting(ctx, database, SettingSaveHistory, true)
	if got {
		t.Error("expected stored false")
	}

	if err := SetSetting(ctx, database, SettingSaveHistory, "true"); err != nil {
		t.Fatalf("SetSetting overwrite: %v", err)
	}
	got, _ = GetBoolSetting(ctx, database, SettingSaveHistory, false)
	if !got {
		t.Error("expected overwritten true")
	}
}
