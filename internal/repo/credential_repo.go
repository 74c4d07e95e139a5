// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Credential
// model (the vault's storage).
//
// Error semantics:
//   - When a credential is absent or owned by a different user, functions
//     return ErrNotFound. The two cases are indistinguishable by design.
//   - ErrCredentialInUse signals the referential restriction from
//     generation_requests; the row is left untouched.
//
// The plaintext key never passes through this package: callers hand over
// ciphertext produced by the vault package.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jd2q/go-interview-backend/internal/domain"
)

// ErrCredentialInUse is returned by DeleteCredential when generation requests
// still reference the credential.
var ErrCredentialInUse = errors.New("credential is referenced by generation requests")

// CreateCredential inserts a new vaulted credential for userID. The caller
// supplies ciphertext; usage count starts at zero and last-used is null.
func CreateCredential(ctx context.Context, db *gorm.DB, userID, label, ciphertext string) (*domain.Credential, error) {
	c := &domain.Credential{
		ID:         uuid.NewString(),
		UserID:     userID,
		Label:      label,
		Ciphertext: ciphertext,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListCredentials returns all credentials belonging to userID, most recent
// first.
func ListCredentials(ctx context.Context, db *gorm.DB, userID string) ([]domain.Credential, error) {
	var out []domain.Credential
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// GetCredential fetches a credential by ID scoped to its owner, or
// ErrNotFound.
func GetCredential(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Credential, error) {
	var c domain.Credential
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// RecordCredentialUsage atomically increments the usage counter and stamps
// last_used_at. The increment happens in SQL, not read-modify-write, so
// parallel generations against the same key cannot lose updates.
func RecordCredentialUsage(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Credential{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"usage_count":  gorm.Expr("usage_count + ?", 1),
			"last_used_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCredential removes a credential owned by userID. When generation
// requests still reference it, the delete is refused with ErrCredentialInUse
// (restrict, not cascade, so the history stays readable).
func DeleteCredential(ctx context.Context, db *gorm.DB, id, userID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c domain.Credential
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&c).Error; err != nil {
			return err
		}
		var refs int64
		if err := tx.Model(&domain.GenerationRequest{}).
			Where("credential_id = ?", id).
			Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrCredentialInUse
		}
		if err := tx.Delete(&c).Error; err != nil {
			// The FK RESTRICT may still fire under a racing submission.
			if isRestrict(err) {
				return ErrCredentialInUse
			}
			return err
		}
		return nil
	})
}

// isRestrict detects foreign-key restriction failures across drivers.
func isRestrict(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint") ||
		strings.Contains(msg, "constraint failed: foreign key")
}
