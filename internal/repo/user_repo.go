// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model,
// the source of truth for the ownership attribute used by every other table.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jd2q/go-interview-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist or is not
// owned by the caller. It aliases gorm.ErrRecordNotFound for convenience and
// consistency across the service layer and handlers. The two cases share one
// error on purpose: callers must not be able to tell a foreign row from a
// missing one.
var ErrNotFound = gorm.ErrRecordNotFound

// UpsertUser creates the local user row for an authenticated identity, or
// refreshes the email if the row already exists. The ID is the identity
// provider's subject and is stable across logins.
func UpsertUser(ctx context.Context, db *gorm.DB, id, email, displayName string) (*domain.User, error) {
	u := &domain.User{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "updated_at"}),
		}).
		Create(u).Error
	if err != nil {
		return nil, err
	}
	// Re-read so callers see the persisted display name on replays.
	return GetUser(ctx, db, id)
}

// GetUser fetches a user by ID, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateDisplayName changes the user's profile name. Returns ErrNotFound when
// no row was touched.
func UpdateDisplayName(ctx context.Context, db *gorm.DB, id, displayName string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("display_name", displayName)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the user and every owned row. Children go first, in
// dependency order, so the credential RESTRICT never fires against rows that
// are being removed in the same breath.
func DeleteUser(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&domain.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("generation_id IN (?)",
			tx.Model(&domain.GenerationRequest{}).Select("id").Where("user_id = ?", id),
		).Delete(&domain.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.GenerationRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Credential{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.ActivityLog{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
