// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// GenerationRequest model, including the guarded terminal-state updates that
// make the pending → completed|failed transition monotonic at the storage
// level.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jd2q/go-interview-backend/internal/domain"
)

// CreateGenerationRequest inserts a new request in the pending state.
func CreateGenerationRequest(ctx context.Context, db *gorm.DB, userID, credentialID, jobDescription string) (*domain.GenerationRequest, error) {
	g := &domain.GenerationRequest{
		ID:             uuid.NewString(),
		UserID:         userID,
		CredentialID:   credentialID,
		JobDescription: jobDescription,
		Status:         domain.StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(g).Error; err != nil {
		return nil, err
	}
	return g, nil
}

// GetGenerationRequest fetches a request by ID scoped to its owner, or
// ErrNotFound.
func GetGenerationRequest(ctx context.Context, db *gorm.DB, id, userID string) (*domain.GenerationRequest, error) {
	var g domain.GenerationRequest
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CountGenerationRequests returns the number of requests owned by userID.
func CountGenerationRequests(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.GenerationRequest{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListGenerationRequestsPage returns a page of the user's requests, most
// recent first.
func ListGenerationRequestsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.GenerationRequest, error) {
	var out []domain.GenerationRequest
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CompleteGenerationRequest moves a pending request to completed and attaches
// the inferred role level and skills. The WHERE clause pins the current
// status, so a request that already reached a terminal state is never
// rewritten; such calls return ErrNotFound.
//
// The caller is expected to run this inside the same transaction that inserts
// the question batch, so a completed request and its children become visible
// together.
func CompleteGenerationRequest(ctx context.Context, db *gorm.DB, id string, roleLevel string, extractedSkills datatypes.JSON) error {
	return terminalUpdate(ctx, db, id, map[string]any{
		"status":           domain.StatusCompleted,
		"role_level":       roleLevel,
		"extracted_skills": extractedSkills,
	})
}

// FailGenerationRequest moves a pending request to failed with a sanitized
// error summary. Terminal rows are left untouched (ErrNotFound).
func FailGenerationRequest(ctx context.Context, db *gorm.DB, id, errorDetail string) error {
	return terminalUpdate(ctx, db, id, map[string]any{
		"status":       domain.StatusFailed,
		"error_detail": errorDetail,
	})
}

// terminalUpdate applies a terminal transition guarded on the pending state.
func terminalUpdate(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.GenerationRequest{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
