// Package services – FavoriteService
//
// This file implements the FavoriteService, which bookmarks questions. Adding
// the same question twice is idempotent: the storage layer swallows the
// duplicate insert and the caller gets the original row back either way.
// Removal is scoped to the owner.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jd2q/go-interview-backend/internal/domain"
	"github.com/jd2q/go-interview-backend/internal/repo"
)

// FavoriteService manages question bookmarks.
type FavoriteService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Audit records audit-log entries; nil disables recording.
	Audit Auditor
}

// NewFavoriteService constructs a FavoriteService.
func NewFavoriteService(db *gorm.DB, audit Auditor) *FavoriteService {
	return &FavoriteService{DB: db, Audit: audit}
}

// Add bookmarks a question for userID. The question must exist; it does not
// have to belong to the caller, so shared or exported questions can be
// bookmarked too. Re-adding an existing bookmark returns the stored row with
// created=false and writes nothing.
func (s *FavoriteService) Add(ctx context.Context, userID, questionID string) (*domain.Favorite, bool, error) {
	var q domain.Question
	if err := s.DB.WithContext(ctx).Select("id").Where("id = ?", questionID).First(&q).Error; err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, false, ErrQuestionNotFound
		}
		return nil, false, err
	}

	fav, created, err := repo.CreateFavorite(ctx, s.DB, userID, questionID)
	if err != nil {
		return nil, false, err
	}
	if created && s.Audit != nil {
		s.Audit.Record(ctx, userID, ActionFavoriteAdded, "question", questionID, nil)
	}
	return fav, created, nil
}

// List returns the caller's bookmarks, newest first, with the bookmarked
// question attached.
func (s *FavoriteService) List(ctx context.Context, userID string) ([]domain.Favorite, error) {
	return repo.ListFavorites(ctx, s.DB, userID)
}

// Remove deletes one bookmark owned by userID.
func (s *FavoriteService) Remove(ctx context.Context, userID, id string) error {
	if err := repo.DeleteFavorite(ctx, s.DB, id, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrFavoriteNotFound
		}
		return err
	}
	if s.Audit != nil {
		s.Audit.Record(ctx, userID, ActionFavoriteRemoved, "favorite", id, nil)
	}
	return nil
}
