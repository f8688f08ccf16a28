package rowstore

import (
	"context"
	"errors"
	"testing"
)

func testSchemas() []Schema {
	return []Schema{{
		Sheet: "items",
		Key:   "id",
		Fields: []Field{
			{Name: "id"},
			{Name: "status"},
		},
	}}
}

func TestMemoryStoreAppendAndRead(t *testing.T) {
	store := NewMemoryStore(testSchemas())
	ctx := context.Background()

	if err := store.AppendRow(ctx, "items", map[string]string{"id": "A1", "status": "Open"}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	if err := store.AppendRow(ctx, "items", map[string]string{"id": "A2"}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}

	rows, err := store.ReadAll(ctx, "items")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ReadAll returned %d rows, want 2", len(rows))
	}
	if rows[0].Cells["id"] != "A1" || rows[1].Cells["id"] != "A2" {
		t.Fatalf("rows out of append order: %v", rows)
	}
	if rows[0].ID == rows[1].ID {
		t.Fatalf("row ids must be unique")
	}
	// Every declared column shows up in snapshots, empty if unset.
	if _, ok := rows[1].Cells["status"]; !ok {
		t.Fatalf("declared column missing from snapshot")
	}
}

func TestMemoryStoreFindRow(t *testing.T) {
	store := NewMemoryStore(testSchemas())
	ctx := context.Background()
	_ = store.AppendRow(ctx, "items", map[string]string{"id": "A1", "status": "Open"})

	row, err := store.FindRow(ctx, "items", "id", "A1")
	if err != nil || row == nil {
		t.Fatalf("FindRow = %v, %v; want row", row, err)
	}
	missing, err := store.FindRow(ctx, "items", "id", "A9")
	if err != nil || missing != nil {
		t.Fatalf("FindRow for absent value = %v, %v; want nil, nil", missing, err)
	}
}

func TestMemoryStoreUpdateRowRevision(t *testing.T) {
	store := NewMemoryStore(testSchemas())
	ctx := context.Background()
	_ = store.AppendRow(ctx, "items", map[string]string{"id": "A1", "status": "Open"})
	row, _ := store.FindRow(ctx, "items", "id", "A1")

	if err := store.UpdateRow(ctx, "items", row.ID, row.Rev, map[string]string{"status": "Closed"}); err != nil {
		t.Fatalf("UpdateRow: %v", err)
	}
	// The stale revision now loses.
	err := store.UpdateRow(ctx, "items", row.ID, row.Rev, map[string]string{"status": "Open"})
	if !errors.Is(err, ErrRowConflict) {
		t.Fatalf("stale UpdateRow err = %v, want ErrRowConflict", err)
	}
	if err := store.UpdateRow(ctx, "items", 999, 1, map[string]string{"status": "x"}); !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("absent UpdateRow err = %v, want ErrRowNotFound", err)
	}

	fresh, _ := store.FindRow(ctx, "items", "id", "A1")
	if fresh.Cells["status"] != "Closed" {
		t.Fatalf("status = %q after conflict, want Closed", fresh.Cells["status"])
	}
	if fresh.Rev != row.Rev+1 {
		t.Fatalf("rev = %d, want %d", fresh.Rev, row.Rev+1)
	}
}

func TestMemoryStoreWriteCellIsUnconditional(t *testing.T) {
	store := NewMemoryStore(testSchemas())
	ctx := context.Background()
	_ = store.AppendRow(ctx, "items", map[string]string{"id": "A1"})
	row, _ := store.FindRow(ctx, "items", "id", "A1")

	// WriteCell may introduce a brand-new column.
	if err := store.WriteCell(ctx, "items", row.ID, "note", "hello"); err != nil {
		t.Fatalf("WriteCell: %v", err)
	}
	fresh, _ := store.FindRow(ctx, "items", "id", "A1")
	if fresh.Cells["note"] != "hello" {
		t.Fatalf("note = %q, want hello", fresh.Cells["note"])
	}
	if fresh.Rev != row.Rev+1 {
		t.Fatalf("WriteCell must bump the revision")
	}
}

func TestMemoryStoreEnsureColumns(t *testing.T) {
	store := NewMemoryStore(testSchemas())
	ctx := context.Background()
	_ = store.AppendRow(ctx, "items", map[string]string{"id": "A1"})

	if err := store.EnsureColumns(ctx, "items", "notified"); err != nil {
		t.Fatalf("EnsureColumns: %v", err)
	}
	rows, _ := store.ReadAll(ctx, "items")
	if _, ok := rows[0].Cells["notified"]; !ok {
		t.Fatalf("ensured column missing from snapshots")
	}
}

func TestMemoryStoreDeleteRow(t *testing.T) {
	store := NewMemoryStore(testSchemas())
	ctx := context.Background()
	_ = store.AppendRow(ctx, "items", map[string]string{"id": "A1"})
	row, _ := store.FindRow(ctx, "items", "id", "A1")

	if err := store.DeleteRow(ctx, "items", row.ID); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	rows, _ := store.ReadAll(ctx, "items")
	if len(rows) != 0 {
		t.Fatalf("deleted row still visible")
	}
	if err := store.DeleteRow(ctx, "items", row.ID); !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("double delete err = %v, want ErrRowNotFound", err)
	}
}
