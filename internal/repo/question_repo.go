// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Question
// model. Questions are owned transitively: every owner-scoped lookup joins
// through generation_requests to the owning user.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/jd2q/go-interview-backend/internal/domain"
)

// CreateQuestions inserts a batch of questions in one statement. Callers run
// this inside the transaction that completes the parent request, so children
// never exist without a completed parent.
func CreateQuestions(ctx context.Context, db *gorm.DB, questions []domain.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&questions).Error
}

// GetQuestion fetches a question by ID, enforcing transitive ownership via
// the parent request. Absent and foreign questions both yield ErrNotFound.
func GetQuestion(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Question, error) {
	var q domain.Question
	err := db.WithContext(ctx).
		Joins("JOIN generation_requests gr ON gr.id = questions.generation_id").
		Where("questions.id = ? AND gr.user_id = ?", id, userID).
		First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQuestions returns all questions of one generation request in insertion
// order, scoped to the request owner.
func ListQuestions(ctx context.Context, db *gorm.DB, generationID, userID string) ([]domain.Question, error) {
	var out []domain.Question
	err := db.WithContext(ctx).
		Joins("JOIN generation_requests gr ON gr.id = questions.generation_id").
		Where("questions.generation_id = ? AND gr.user_id = ?", generationID, userID).
		Order("questions.created_at, questions.code").
		Find(&out).Error
	return out, err
}

// CountQuestions returns the number of questions attached to a generation
// request, without ownership scoping. Used by tests and internal invariant
// checks.
func CountQuestions(ctx context.Context, db *gorm.DB, generationID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Question{}).
		Where("generation_id = ?", generationID).
		Count(&total).Error
	return total, err
}

// UpdateQuestionAnswer backfills the generated answer for one question. The
// answer is written at most once; a question that already has one is not
// rewritten and the call reports ErrNotFound so the service can re-read and
// return the stored answer.
func UpdateQuestionAnswer(ctx context.Context, db *gorm.DB, id, answer string) error {
	res := db.WithContext(ctx).
		Model(&domain.Question{}).
		Where("id = ? AND generated_answer IS NULL", id).
		Update("generated_answer", answer)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
