package repo

import (
	"context"
	"testing"

	"gorm.io/datatypes"
)

func TestActivityLog_AppendAndPage(t *testing.T) {
	db := newRepoDB(t)
	mustUser(t, db, "u1")
	mustUser(t, db, "u2")

	meta := datatypes.JSON(`{"label":"Work key"}`)
	if err := InsertActivity(context.Background(), db, "u1", "credential_registered", "credential", "c1", meta); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := InsertActivity(context.Background(), db, "u1", "generation_completed", "", "", nil); err != nil {
		t.Fatalf("insert without entity: %v", err)
	}

	n, err := CountActivity(context.Background(), db, "u1")
	if err != nil || n != 2 {
		t.Fatalf("count = %d, %v; want 2", n, err)
	}
	if foreign, _ := CountActivity(context.Background(), db, "u2"); foreign != 0 {
		t.Fatalf("foreign count = %d", foreign)
	}

	page, err := ListActivityPage(context.Background(), db, "u1", 0, 10)
	if err != nil || len(page) != 2 {
		t.Fatalf("page = %d, %v", len(page), err)
	}
	for _, entry := range page {
		if entry.Action == "generation_completed" {
			if entry.EntityType != nil || entry.EntityID != nil {
				t.Errorf("empty entity fields stored as non-nil: %+v", entry)
			}
		}
	}
}
