// Package services – CredentialService
//
// This file implements the CredentialService, the vault's business layer. It
// validates and normalizes labels, encrypts key material before anything
// touches storage, and is the only component allowed to turn ciphertext back
// into a plaintext key. Plaintext is never persisted, never logged, and only
// the masked form is handed to callers for display.
//
// Service-level errors (ErrCredentialNotFound, ErrCredentialInUse) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/jd2q/go-interview-backend/internal/domain"
	"github.com/jd2q/go-interview-backend/internal/repo"
	"github.com/jd2q/go-interview-backend/internal/vault"
)

// CredentialRepo defines the repository contract required by
// CredentialService.
type CredentialRepo interface {
	// CreateCredential inserts a vaulted credential; the caller supplies
	// ciphertext.
	CreateCredential(ctx context.Context, db *gorm.DB, userID, label, ciphertext string) (*domain.Credential, error)

	// ListCredentials returns all credentials of the user, newest first.
	ListCredentials(ctx context.Context, db *gorm.DB, userID string) ([]domain.Credential, error)

	// GetCredential fetches a credential by ID ensuring it belongs to the user.
	GetCredential(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Credential, error)

	// DeleteCredential removes a credential unless generation requests still
	// reference it.
	DeleteCredential(ctx context.Context, db *gorm.DB, id, userID string) error
}

// gormCredentialRepo adapts the package-level repo functions to CredentialRepo.
type gormCredentialRepo struct{}

func (gormCredentialRepo) CreateCredential(ctx context.Context, db *gorm.DB, userID, label, ciphertext string) (*domain.Credential, error) {
	return repo.CreateCredential(ctx, db, userID, label, ciphertext)
}

func (gormCredentialRepo) ListCredentials(ctx context.Context, db *gorm.DB, userID string) ([]domain.Credential, error) {
	return repo.ListCredentials(ctx, db, userID)
}

func (gormCredentialRepo) GetCredential(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Credential, error) {
	return repo.GetCredential(ctx, db, id, userID)
}

func (gormCredentialRepo) DeleteCredential(ctx context.Context, db *gorm.DB, id, userID string) error {
	return repo.DeleteCredential(ctx, db, id, userID)
}

// CredentialService manages vaulted API credentials: registration with
// encryption, masked listing, decryption for the pipeline, and guarded
// removal.
type CredentialService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the credential repository used by this service.
	Repo CredentialRepo
	// Cipher encrypts and decrypts key material.
	Cipher *vault.Cipher
	// Audit records audit-log entries; nil disables recording.
	Audit Auditor

	// LabelMaxLen caps stored labels by rune length.
	LabelMaxLen int
}

// NewCredentialService constructs a CredentialService with defaults.
func NewCredentialService(db *gorm.DB, cipher *vault.Cipher, audit Auditor) *CredentialService {
	return &CredentialService{
		DB:          db,
		Repo:        gormCredentialRepo{},
		Cipher:      cipher,
		Audit:       audit,
		LabelMaxLen: 120,
	}
}

// Register encrypts the supplied key and stores it under the given label.
// The returned masked string is the only representation of the key a caller
// ever sees again.
func (s *CredentialService) Register(ctx context.Context, userID, label, key string) (*domain.Credential, string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, "", ErrEmptyLabel
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, "", ErrEmptyKey
	}

	ciphertext, err := s.Cipher.Encrypt(key)
	if err != nil {
		return nil, "", err
	}
	c, err := s.Repo.CreateCredential(ctx, s.DB, userID, s.clip(label), ciphertext)
	if err != nil {
		return nil, "", err
	}
	if s.Audit != nil {
		s.Audit.Record(ctx, userID, ActionCredentialRegistered, "credential", c.ID,
			map[string]any{"label": c.Label})
	}
	return c, vault.Mask(key), nil
}

// List returns the caller's credentials. Rows carry no key material; the
// ciphertext column is excluded from serialization at the model level.
func (s *CredentialService) List(ctx context.Context, userID string) ([]domain.Credential, error) {
	return s.Repo.ListCredentials(ctx, s.DB, userID)
}

// Get fetches one credential owned by userID.
func (s *CredentialService) Get(ctx context.Context, userID, id string) (*domain.Credential, error) {
	c, err := s.Repo.GetCredential(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}
	return c, nil
}

// Decrypt returns the plaintext key of a credential owned by userID. Callers
// must treat the result as transient: use it for one external call and drop
// it.
func (s *CredentialService) Decrypt(ctx context.Context, userID, id string) (string, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	return s.Cipher.Decrypt(c.Ciphertext)
}

// Remove deletes a credential owned by userID. A credential still referenced
// by generation requests is refused with ErrCredentialInUse and left intact.
func (s *CredentialService) Remove(ctx context.Context, userID, id string) error {
	err := s.Repo.DeleteCredential(ctx, s.DB, id, userID)
	switch {
	case err == nil:
		if s.Audit != nil {
			s.Audit.Record(ctx, userID, ActionCredentialRemoved, "credential", id, nil)
		}
		return nil
	case errors.Is(err, repo.ErrCredentialInUse):
		return ErrCredentialInUse
	case errors.Is(err, repo.ErrNotFound):
		return ErrCredentialNotFound
	default:
		return err
	}
}

// clip truncates a label to LabelMaxLen runes.
func (s *CredentialService) clip(label string) string {
	if s.LabelMaxLen <= 0 || utf8.RuneCountInString(label) <= s.LabelMaxLen {
		return label
	}
	runes := []rune(label)
	return string(runes[:s.LabelMaxLen])
}
