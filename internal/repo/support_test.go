package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jd2q/go-interview-backend/internal/domain"
)

// newRepoDB opens a throwaway SQLite database with the full schema migrated.
func newRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// One connection keeps concurrent test writers out of SQLITE_BUSY.
	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { _ = sqlDB.Close() })
	}

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Credential{},
		&domain.GenerationRequest{},
		&domain.Question{},
		&domain.Favorite{},
		&domain.ActivityLog{},
		&domain.Idempotency{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func mustUser(t *testing.T, db *gorm.DB, id string) *domain.User {
	t.Helper()
	u, err := UpsertUser(context.Background(), db, id, id+"@example.com", "Tester")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func mustCredential(t *testing.T, db *gorm.DB, userID string) *domain.Credential {
	t.Helper()
	c, err := CreateCredential(context.Background(), db, userID, "key", "ciphertext-blob")
	if err != nil {
		t.Fatalf("seed credential: %v", err)
	}
	return c
}

func mustGeneration(t *testing.T, db *gorm.DB, userID, credentialID string) *domain.GenerationRequest {
	t.Helper()
	g, err := CreateGenerationRequest(context.Background(), db, userID, credentialID, "a job description")
	if err != nil {
		t.Fatalf("seed generation: %v", err)
	}
	return g
}

func mustQuestion(t *testing.T, db *gorm.DB, generationID string) *domain.Question {
	t.Helper()
	q := domain.Question{
		ID:           uuid.NewString(),
		GenerationID: generationID,
		Code:         "Q1",
		QuestionText: "Explain indexes.",
	}
	if err := CreateQuestions(context.Background(), db, []domain.Question{q}); err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return &q
}
