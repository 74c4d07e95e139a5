// Handler wiring for the public API.
//
// This file declares the service contracts the HTTP layer consumes, the
// Handlers aggregate that binds them, and small helpers shared by all
// endpoints (identity extraction, pagination clamping, service-error
// translation). Handlers are transport-thin: they validate input, call
// application services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jd2q/go-interview-backend/internal/domain"
	"github.com/jd2q/go-interview-backend/internal/http/middleware"
	"github.com/jd2q/go-interview-backend/internal/services"
	"github.com/jd2q/go-interview-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// CredentialService defines vault operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type CredentialService interface {
	// Register encrypts and stores a key, returning the row and masked form.
	Register(ctx context.Context, userID, label, key string) (*domain.Credential, string, error)
	// List returns the user's credentials without key material.
	List(ctx context.Context, userID string) ([]domain.Credential, error)
	// Remove deletes a credential unless generation requests reference it.
	Remove(ctx context.Context, userID, id string) error
}

// GenerationService defines pipeline operations consumed by HTTP handlers.
type GenerationService interface {
	// Submit validates and records a generation request, returning it pending.
	Submit(ctx context.Context, userID, credentialID, jobDescription string) (*domain.GenerationRequest, error)
	// Get fetches one request owned by the user.
	Get(ctx context.Context, userID, id string) (*domain.GenerationRequest, error)
	// Count returns the user's total request count.
	Count(ctx context.Context, userID string) (int64, error)
	// ListPage returns one page of the user's requests, newest first.
	ListPage(ctx context.Context, userID string, offset, limit int) ([]domain.GenerationRequest, error)
	// Questions returns the question batch of one owned request.
	Questions(ctx context.Context, userID, generationID string) ([]domain.Question, error)
}

// QuestionService defines question operations consumed by HTTP handlers.
type QuestionService interface {
	// Get fetches one question owned through its parent request.
	Get(ctx context.Context, userID, id string) (*domain.Question, error)
	// GenerateAnswer returns the model answer, producing it on first request.
	GenerateAnswer(ctx context.Context, userID, questionID string) (string, error)
}

// FavoriteService defines bookmark operations consumed by HTTP handlers.
type FavoriteService interface {
	// Add bookmarks a question; repeated adds are idempotent.
	Add(ctx context.Context, userID, questionID string) (*domain.Favorite, bool, error)
	// List returns the user's bookmarks, newest first.
	List(ctx context.Context, userID string) ([]domain.Favorite, error)
	// Remove deletes one bookmark owned by the user.
	Remove(ctx context.Context, userID, id string) error
}

// UserService defines profile operations consumed by HTTP handlers.
type UserService interface {
	// Get fetches the caller's own profile.
	Get(ctx context.Context, id string) (*domain.User, error)
	// UpdateDisplayName changes the caller's profile name.
	UpdateDisplayName(ctx context.Context, id, name string) (*domain.User, error)
}

// ActivityService defines audit-log reads consumed by HTTP handlers.
type ActivityService interface {
	// Count returns the user's total entry count.
	Count(ctx context.Context, userID string) (int64, error)
	// ListPage returns one page of the user's entries, newest first.
	ListPage(ctx context.Context, userID string, offset, limit int) ([]domain.ActivityLog, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for credentials, generations, questions,
// favorites, profile, and activity. It depends on abstract service interfaces
// to keep transport concerns separate from business logic. The db handle backs
// best-effort extras (ETag stats, idempotency records); nil disables them.
type Handlers struct {
	db      *gorm.DB
	credSvc CredentialService
	genSvc  GenerationService
	qSvc    QuestionService
	favSvc  FavoriteService
	userSvc UserService
	actSvc  ActivityService
}

// New constructs a Handlers instance bound to the given services. db may be
// nil; handlers then skip ETag and idempotency reads.
func New(db *gorm.DB, cred CredentialService, gen GenerationService, q QuestionService, fav FavoriteService, user UserService, act ActivityService) *Handlers {
	return &Handlers{db: db, credSvc: cred, genSvc: gen, qSvc: q, favSvc: fav, userSvc: user, actSvc: act}
}

// userID extracts the authenticated user id from the Gin context (set by the
// auth middleware). Routes are registered behind Auth, so an absent identity
// is a wiring bug; callers treat "" as unauthorized.
func userID(c *gin.Context) string {
	uid, _ := middleware.UserID(c)
	return uid
}

//
// Shared DTOs and helpers
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// paginate computes the metadata block for a page of total rows.
func paginate(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// failService translates well-known service errors into HTTP responses.
// Unknown errors become opaque 500s; their detail stays in the logs.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyJobDescription),
		errors.Is(err, services.ErrJobDescriptionTooLong),
		errors.Is(err, services.ErrEmptyLabel),
		errors.Is(err, services.ErrEmptyKey),
		errors.Is(err, services.ErrEmptyDisplayName):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrCredentialNotFound),
		errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrQuestionNotFound),
		errors.Is(err, services.ErrFavoriteNotFound),
		errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrCredentialInUse):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrAnswerFailed):
		fail(c, http.StatusBadGateway, ErrCodeAnswerFailed, "answer generation failed")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
