package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sentix/models"
)

func openTestDB(t *testing.T) *Journal {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewJournal(db, 3)
}

func TestJournalRecordAndRecent(t *testing.T) {
	j := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		rec := models.ScanRecord{
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + 30*time.Second),
			Status:     "ready",
			Positive:   i,
		}
		if err := j.Record(ctx, rec); err != nil {
			t.Fatalf("Record(%d): %v", i, err)
		}
	}

	recs, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3 after trimming", len(recs))
	}
	if recs[0].Positive != 4 || recs[2].Positive != 2 {
		t.Errorf("records not newest first: %d..%d", recs[0].Positive, recs[2].Positive)
	}
	if d := recs[0].Duration(); d != 30*time.Second {
		t.Errorf("Duration() = %v, want 30s", d)
	}

	recs, err = j.Recent(ctx, 1)
	if err != nil || len(recs) != 1 {
		t.Errorf("Recent(1) = %d records, err %v", len(recs), err)
	}
}

func TestJournalFailureRow(t *testing.T) {
	j := openTestDB(t)
	ctx := context.Background()

	err := j.Record(ctx, models.ScanRecord{
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
		Status:     "failed",
		ErrorKind:  "MissingCredential",
		Message:    "resolve credential: MissingCredential: no API key found",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	recs, err := j.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ErrorKind != "MissingCredential" || recs[0].ID == 0 {
		t.Errorf("unexpected records: %+v", recs)
	}
}
