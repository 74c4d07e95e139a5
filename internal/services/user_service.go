// Package services – UserService
//
// This file implements the UserService, which materializes a local user row
// for each externally authenticated identity and manages the profile. The row
// is created lazily on the first authenticated request; the display name
// defaults to a title-cased rendering of the email local part and can be
// changed later.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/jd2q/go-interview-backend/internal/domain"
	"github.com/jd2q/go-interview-backend/internal/repo"
)

// UserService manages local user rows and profile updates.
type UserService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Audit records audit-log entries; nil disables recording.
	Audit Auditor

	// NameMaxLen caps stored display names by rune length.
	NameMaxLen int

	titler cases.Caser
}

// NewUserService constructs a UserService with defaults.
func NewUserService(db *gorm.DB, audit Auditor) *UserService {
	return &UserService{
		DB:         db,
		Audit:      audit,
		NameMaxLen: 120,
		titler:     cases.Title(language.English),
	}
}

// Ensure creates or refreshes the local row for an authenticated identity and
// returns it. id is the identity provider's stable subject. On replays the
// persisted display name wins over the derived default.
func (s *UserService) Ensure(ctx context.Context, id, email string) (*domain.User, error) {
	return repo.UpsertUser(ctx, s.DB, id, email, s.defaultName(email))
}

// Get fetches the caller's own profile.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// UpdateDisplayName changes the caller's profile name.
func (s *UserService) UpdateDisplayName(ctx context.Context, id, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyDisplayName
	}
	if s.NameMaxLen > 0 && utf8.RuneCountInString(name) > s.NameMaxLen {
		name = string([]rune(name)[:s.NameMaxLen])
	}
	if err := repo.UpdateDisplayName(ctx, s.DB, id, name); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if s.Audit != nil {
		s.Audit.Record(ctx, id, ActionProfileUpdated, "user", id, map[string]any{"display_name": name})
	}
	return s.Get(ctx, id)
}

// defaultName derives a presentable display name from the email local part:
// separators become spaces and words are title-cased, so "jane.doe@x.io"
// reads as "Jane Doe".
func (s *UserService) defaultName(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		local = email[:at]
	}
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ", "+", " ").Replace(local)
	local = strings.Join(strings.Fields(local), " ")
	if local == "" {
		return "User"
	}
	return s.titler.String(local)
}
