// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Favorite
// model. The (user_id, question_id) pair is unique; duplicate inserts are
// swallowed with ON CONFLICT DO NOTHING so a repeated add is idempotent
// rather than an error.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jd2q/go-interview-backend/internal/domain"
)

// CreateFavorite bookmarks a question for userID. Inserting an existing
// (user, question) pair is a silent no-op; the stored row is returned either
// way, with created reporting whether this call inserted it.
func CreateFavorite(ctx context.Context, db *gorm.DB, userID, questionID string) (fav *domain.Favorite, created bool, err error) {
	f := &domain.Favorite{
		ID:         uuid.NewString(),
		UserID:     userID,
		QuestionID: questionID,
		CreatedAt:  time.Now().UTC(),
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "question_id"}},
			DoNothing: true,
		}).
		Create(f)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created = res.RowsAffected > 0
	// On conflict the generated ID above was discarded; read the winner back.
	var stored domain.Favorite
	err = db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		First(&stored).Error
	if err != nil {
		return nil, false, err
	}
	return &stored, created, nil
}

// ListFavorites returns the caller's favorites, newest first, with the
// bookmarked question preloaded for display. The ordering is part of the
// contract: clients render the list reverse-chronologically.
func ListFavorites(ctx context.Context, db *gorm.DB, userID string) ([]domain.Favorite, error) {
	var out []domain.Favorite
	err := db.WithContext(ctx).
		Preload("Question").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// DeleteFavorite removes a favorite by ID scoped to its owner. Absent and
// foreign favorites both yield ErrNotFound.
func DeleteFavorite(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountFavorites returns the number of favorites a user holds for one
// question. Exposed for tests asserting the uniqueness invariant.
func CountFavorites(ctx context.Context, db *gorm.DB, userID, questionID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Favorite{}).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Count(&total).Error
	return total, err
}
