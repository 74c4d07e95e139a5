// Package services – QuestionService
//
// This file implements the QuestionService, which serves individual questions
// and backfills model answers on demand. An answer is produced at most once
// per question: the storage layer refuses a second write, and concurrent
// backfills collapse onto whichever answer landed first. Ownership of a
// question is transitive through its parent generation request.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/jd2q/go-interview-backend/internal/domain"
	"github.com/jd2q/go-interview-backend/internal/llm"
	"github.com/jd2q/go-interview-backend/internal/repo"
	"github.com/jd2q/go-interview-backend/internal/vault"
)

// QuestionService serves questions and generates answers for them.
type QuestionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Engine is the external reasoning engine.
	Engine llm.Generator
	// Cipher decrypts vaulted credentials for the engine call.
	Cipher *vault.Cipher
	// Audit records audit-log entries; nil disables recording.
	Audit Auditor

	// Timeout bounds one answer call.
	Timeout time.Duration
}

// NewQuestionService constructs a QuestionService with a 60s answer deadline.
func NewQuestionService(db *gorm.DB, engine llm.Generator, cipher *vault.Cipher, audit Auditor) *QuestionService {
	return &QuestionService{
		DB:      db,
		Engine:  engine,
		Cipher:  cipher,
		Audit:   audit,
		Timeout: 60 * time.Second,
	}
}

// Get fetches one question the caller owns through its parent request.
func (s *QuestionService) Get(ctx context.Context, userID, id string) (*domain.Question, error) {
	q, err := repo.GetQuestion(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

// GenerateAnswer returns the model answer for a question, producing it on
// first request. Repeated calls return the stored answer without another
// engine round trip; the key used is the same credential that generated the
// question.
func (s *QuestionService) GenerateAnswer(ctx context.Context, userID, questionID string) (string, error) {
	q, err := s.Get(ctx, userID, questionID)
	if err != nil {
		return "", err
	}
	if q.GeneratedAnswer != nil {
		return *q.GeneratedAnswer, nil
	}

	gen, err := repo.GetGenerationRequest(ctx, s.DB, q.GenerationID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrQuestionNotFound
		}
		return "", err
	}
	cred, err := repo.GetCredential(ctx, s.DB, gen.CredentialID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrCredentialNotFound
		}
		return "", err
	}
	key, err := s.Cipher.Decrypt(cred.Ciphertext)
	if err != nil {
		return "", err
	}

	callCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	answer, err := s.Engine.GenerateAnswer(callCtx, answerPrompt(gen, q), key)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAnswerFailed, scrubKey(err.Error(), key))
	}

	if err := repo.UpdateQuestionAnswer(ctx, s.DB, q.ID, answer); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// A concurrent backfill won; return the stored answer.
			stored, rerr := s.Get(ctx, userID, questionID)
			if rerr == nil && stored.GeneratedAnswer != nil {
				return *stored.GeneratedAnswer, nil
			}
		}
		return "", err
	}
	if s.Audit != nil {
		s.Audit.Record(ctx, userID, ActionAnswerGenerated, "question", q.ID, nil)
	}
	return answer, nil
}

// answerPrompt assembles the engine prompt from the question row and its
// parent request.
func answerPrompt(gen *domain.GenerationRequest, q *domain.Question) llm.AnswerPrompt {
	p := llm.AnswerPrompt{
		RoleLevel:    gen.RoleLevel,
		Skill:        q.Skill,
		QuestionType: q.QuestionType,
		Difficulty:   q.Difficulty,
		Text:         q.QuestionText,
	}
	if len(q.ExpectedSignals) > 0 {
		var signals []string
		if err := json.Unmarshal(q.ExpectedSignals, &signals); err != nil {
			log.Debug().Err(err).Str("question_id", q.ID).Msg("expected signals not a string list")
		} else {
			p.ExpectedSignals = signals
		}
	}
	return p
}
