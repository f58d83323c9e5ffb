package db

import (
	"testing"
)

func TestMigrateIsIdempotent(t *testing.T) {
	database := NewTestDB(t)

	if err := Migrate(database); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	database := NewTestDB(t)

	var on int
	if err := database.QueryRow(`PRAGMA foreign_keys`).Scan(&on); err != nil {
		t.Fatal(err)
	}
	if on != 1 {
		t.Errorf("expected foreign_keys=1, got %d", on)
	}
}

func TestCasefoldFunction(t *testing.T) {
	database := NewTestDB(t)

	tests := []struct {
		in   string
		want string
	}{
		{"Laptop", "laptop"},
		{"НОУТБУК", "ноутбук"},
		{"Straße", "strasse"},
	}

	for _, tt := range tests {
		var got string
		if err := database.QueryRow(`SELECT casefold(?)`, tt.in).Scan(&got); err != nil {
			t.Fatalf("casefold(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("casefold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestItemCheckConstraint(t *testing.T) {
	database := NewTestDB(t)

	if _, err := database.Exec(`INSERT INTO item_types (name) VALUES ('Desk')`); err != nil {
		t.Fatal(err)
	}

	bad := []struct {
		name   string
		serial any
		qty    int
	}{
		{"bulk zero", nil, 0},
		{"serialized two", "SN-1", 2},
	}
	for _, b := range bad {
		_, err := database.Exec(`INSERT INTO items (item_type_id, quantity, serial_number) VALUES (1, ?, ?)`, b.qty, b.serial)
		if err == nil {
			t.Errorf("%s: expected check constraint violation", b.name)
		}
	}

	if _, err := database.Exec(`INSERT INTO items (item_type_id, quantity, serial_number) VALUES (1, 1, 'SN-1')`); err != nil {
		t.Errorf("valid serialized row rejected: %v", err)
	}
	if _, err := database.Exec(`INSERT INTO items (item_type_id, quantity) VALUES (1, 7)`); err != nil {
		t.Errorf("valid bulk row rejected: %v", err)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := EscapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Errorf("EscapeLike = %q", got)
	}
}
