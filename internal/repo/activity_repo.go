// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the Activity Log repository. The log is
// append-only: InsertActivity and the two read helpers are the whole surface.
// No update or delete function exists, here or anywhere else; the audit
// trail other components rely on is protected structurally, not by
// convention.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jd2q/go-interview-backend/internal/domain"
)

// InsertActivity appends one audit entry for userID. entityType and entityID
// may be empty when the action is not tied to a single entity.
func InsertActivity(ctx context.Context, db *gorm.DB, userID, action, entityType, entityID string, metadata datatypes.JSON) error {
	entry := &domain.ActivityLog{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if entityType != "" {
		entry.EntityType = &entityType
	}
	if entityID != "" {
		entry.EntityID = &entityID
	}
	return db.WithContext(ctx).Create(entry).Error
}

// CountActivity returns the number of log entries owned by userID.
func CountActivity(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ActivityLog{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListActivityPage returns a page of the caller's own log entries, newest
// first.
func ListActivityPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.ActivityLog, error) {
	var out []domain.ActivityLog
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
