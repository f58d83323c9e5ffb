package store

import (
	"context"
	"testing"

	"github.com/erazemk/auditmagic/internal/db"
)

func TestListTypesWithItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	laptop := mustType(t, database, "Laptop", "", true)
	desk := mustType(t, database, "Desk", "", false)
	mustType(t, database, "Empty", "", false)

	for _, sn := range []string{"SN-2", "SN-1"} {
		if _, err := CreateSerializedItem(ctx, database, NewSerializedItem{ItemTypeID: laptop.ID, SerialNumber: sn}); err != nil {
			t.Fatalf("CreateSerializedItem: %v", err)
		}
	}
	if _, err := CreateItem(ctx, database, NewItem{ItemTypeID: desk.ID, Quantity: 3}); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	groups, err := ListTypesWithItems(ctx, database)
	if err != nil {
		t.Fatalf("ListTypesWithItems: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 types with items, got %d", len(groups))
	}
	if groups[0].Type.Name != "Desk" || groups[1].Type.Name != "Laptop" {
		t.Errorf("unexpected order: %q, %q", groups[0].Type.Name, groups[1].Type.Name)
	}
	if len(groups[1].Items) != 2 {
		t.Fatalf("expected 2 laptops, got %d", len(groups[1].Items))
	}
	if groups[1].Items[0].Serial() != "SN-1" {
		t.Errorf("expected items ordered by serial, got %q first", groups[1].Items[0].Serial())
	}
	for _, g := range groups {
		if g.Type.CreatedAt.IsZero() || g.Type.UpdatedAt.IsZero() {
			t.Errorf("type %q has zero timestamps: created %v, updated %v", g.Type.Name, g.Type.CreatedAt, g.Type.UpdatedAt)
		}
	}
	if !groups[1].Type.CreatedAt.Equal(laptop.CreatedAt) {
		t.Errorf("expected stored created_at %v, got %v", laptop.CreatedAt, groups[1].Type.CreatedAt)
	}

	serialized, err := ListSerializedTypesWithItems(ctx, database)
	if err != nil {
		t.Fatalf("ListSerializedTypesWithItems: %v", err)
	}
	if len(serialized) != 1 || serialized[0].Type.ID != laptop.ID {
		t.Errorf("expected only the laptop type, got %+v", serialized)
	}
}

func TestListTypesWithItemsCarriesImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	laptop := mustType(t, database, "Laptop", "", true)
	if _, err := CreateSerializedItem(ctx, database, NewSerializedItem{ItemTypeID: laptop.ID, SerialNumber: "SN-1"}); err != nil {
		t.Fatalf("CreateSerializedItem: %v", err)
	}
	if err := SetItemTypeImage(ctx, database, laptop.ID, []byte{0xff, 0xd8}, "image/jpeg"); err != nil {
		t.Fatalf("SetItemTypeImage: %v", err)
	}

	groups, err := ListSerializedTypesWithItems(ctx, database)
	if err != nil {
		t.Fatalf("ListSerializedTypesWithItems: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Type.ImageMime != "image/jpeg" {
		t.Errorf("expected image mime to be loaded, got %q", groups[0].Type.ImageMime)
	}
}

func TestListTypesWithItemsEmpty(t *testing.T) {
	database := db.NewTestDB(t)

	groups, err := ListTypesWithItems(context.Background(), database)
	if err != nil {
		t.Fatalf("ListTypesWithItems: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
}
