package repo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jd2q/go-interview-backend/internal/domain"
)

func TestCredential_CreateListGet(t *testing.T) {
	db := newRepoDB(t)
	mustUser(t, db, "u1")
	mustUser(t, db, "u2")

	c := mustCredential(t, db, "u1")
	if c.UsageCount != 0 || c.LastUsedAt != nil {
		t.Fatalf("fresh credential has usage: %+v", c)
	}

	got, err := GetCredential(context.Background(), db, c.ID, "u1")
	if err != nil || got.ID != c.ID {
		t.Fatalf("get: %v", err)
	}
	if _, err := GetCredential(context.Background(), db, c.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign get: err = %v; want ErrNotFound", err)
	}

	list, err := ListCredentials(context.Background(), db, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %d, %v", len(list), err)
	}
	if list2, _ := ListCredentials(context.Background(), db, "u2"); len(list2) != 0 {
		t.Fatalf("foreign rows visible in listing")
	}
}

func TestRecordCredentialUsage_AtomicUnderConcurrency(t *testing.T) {
	db := newRepoDB(t)
	mustUser(t, db, "u1")
	c := mustCredential(t, db, "u1")

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := RecordCredentialUsage(context.Background(), db, c.ID); err != nil {
				t.Errorf("usage increment: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := GetCredential(context.Background(), db, c.ID, "u1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.UsageCount != workers {
		t.Fatalf("usage = %d; want %d (lost updates)", got.UsageCount, workers)
	}
	if got.LastUsedAt == nil {
		t.Fatalf("last_used_at not stamped")
	}
}

func TestRecordCredentialUsage_Missing(t *testing.T) {
	db := newRepoDB(t)
	if err := RecordCredentialUsage(context.Background(), db, "no-such"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}
}

func TestDeleteCredential_RefusedWhileReferenced(t *testing.T) {
	db := newRepoDB(t)
	mustUser(t, db, "u1")
	c := mustCredential(t, db, "u1")
	mustGeneration(t, db, "u1", c.ID)

	if err := DeleteCredential(context.Background(), db, c.ID, "u1"); !errors.Is(err, ErrCredentialInUse) {
		t.Fatalf("err = %v; want ErrCredentialInUse", err)
	}
	// Row untouched.
	if _, err := GetCredential(context.Background(), db, c.ID, "u1"); err != nil {
		t.Fatalf("credential gone after refused delete: %v", err)
	}
}

func TestDeleteCredential_OwnerScoped(t *testing.T) {
	db := newRepoDB(t)
	mustUser(t, db, "u1")
	mustUser(t, db, "u2")
	c := mustCredential(t, db, "u1")

	if err := DeleteCredential(context.Background(), db, c.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete: err = %v; want ErrNotFound", err)
	}
	if err := DeleteCredential(context.Background(), db, c.ID, "u1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	var n int64
	db.Model(&domain.Credential{}).Count(&n)
	if n != 0 {
		t.Fatalf("credentials left = %d", n)
	}
}

func TestIsRestrict(t *testing.T) {
	if !isRestrict(errors.New("constraint failed: FOREIGN KEY constraint failed")) {
		t.Errorf("sqlite message not detected")
	}
	if isRestrict(errors.New("some other failure")) {
		t.Errorf("unrelated error flagged as restrict")
	}
}
