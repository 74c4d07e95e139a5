// Package services – ActivityService
//
// This file implements the ActivityService, the single write path into the
// append-only audit log. Every mutating operation in the other services calls
// Record; reads go through ListPage. Recording is best-effort: a failed insert
// is logged and swallowed so an audit hiccup never fails the user's operation.
package services

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jd2q/go-interview-backend/internal/domain"
	"github.com/jd2q/go-interview-backend/internal/repo"
)

// Audit actions recorded by the services in this package.
const (
	ActionCredentialRegistered = "credential_registered"
	ActionCredentialRemoved    = "credential_removed"
	ActionGenerationCompleted  = "generation_completed"
	ActionGenerationFailed     = "generation_failed"
	ActionAnswerGenerated      = "answer_generated"
	ActionFavoriteAdded        = "favorite_added"
	ActionFavoriteRemoved      = "favorite_removed"
	ActionProfileUpdated       = "profile_updated"
)

// Auditor is the audit-trail contract consumed by the other services. A nil
// Auditor disables recording; ActivityService is the production
// implementation.
type Auditor interface {
	Record(ctx context.Context, userID, action, entityType, entityID string, metadata map[string]any)
}

// ActivityService appends and lists audit-log entries.
type ActivityService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewActivityService constructs an ActivityService.
func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{DB: db}
}

// Record appends one audit entry. metadata may be nil; non-nil maps are
// serialized to a JSON document. Failures are logged, not returned, so the
// calling operation's outcome never depends on the audit write.
func (s *ActivityService) Record(ctx context.Context, userID, action, entityType, entityID string, metadata map[string]any) {
	var doc datatypes.JSON
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			log.Warn().Err(err).Str("action", action).Msg("activity metadata not serializable, recording without it")
		} else {
			doc = datatypes.JSON(raw)
		}
	}
	if err := repo.InsertActivity(ctx, s.DB, userID, action, entityType, entityID, doc); err != nil {
		log.Error().Err(err).Str("action", action).Str("user_id", userID).Msg("activity record failed")
	}
}

// Count returns the total number of entries owned by userID.
func (s *ActivityService) Count(ctx context.Context, userID string) (int64, error) {
	return repo.CountActivity(ctx, s.DB, userID)
}

// ListPage returns one page of the caller's own entries, newest first.
func (s *ActivityService) ListPage(ctx context.Context, userID string, offset, limit int) ([]domain.ActivityLog, error) {
	return repo.ListActivityPage(ctx, s.DB, userID, offset, limit)
}
