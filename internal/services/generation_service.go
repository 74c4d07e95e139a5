// Package services – GenerationService
//
// This file implements the GenerationService, which drives the pipeline from
// a submitted job description to a terminal generation request. Submission
// validates input and ownership, records a pending row, and hands the rest to
// a background worker: decrypt the caller's key, call the reasoning engine,
// and commit the question batch together with the completed status in one
// transaction. Any failure lands the request in the failed state with a
// sanitized summary; a request never sticks in pending past the worker's
// deadline and never reaches both terminal states.
//
// Workers run detached from the submitting HTTP request, bounded by their own
// timeout, and are drained through Wait during shutdown.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jd2q/go-interview-backend/internal/domain"
	"github.com/jd2q/go-interview-backend/internal/llm"
	"github.com/jd2q/go-interview-backend/internal/repo"
	"github.com/jd2q/go-interview-backend/internal/vault"
)

var generationOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "generation_requests_total",
		Help: "Generation pipeline runs by terminal outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(generationOutcomes)
}

// GenerationService owns the question-generation pipeline.
type GenerationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Engine is the external reasoning engine.
	Engine llm.Generator
	// Cipher decrypts vaulted credentials for the engine call.
	Cipher *vault.Cipher
	// Audit records audit-log entries; nil disables recording.
	Audit Auditor

	// Timeout bounds one pipeline run end to end.
	Timeout time.Duration
	// MaxJDWords caps the job description; 0 disables the cap.
	MaxJDWords int
	// MinQuestions is the requested floor; smaller non-empty results are
	// accepted with a warning.
	MinQuestions int

	wg sync.WaitGroup
}

// NewGenerationService constructs a GenerationService with defaults matching
// the product limits: 1500-word inputs, 15 requested questions, 120s runs.
func NewGenerationService(db *gorm.DB, engine llm.Generator, cipher *vault.Cipher, audit Auditor) *GenerationService {
	return &GenerationService{
		DB:           db,
		Engine:       engine,
		Cipher:       cipher,
		Audit:        audit,
		Timeout:      120 * time.Second,
		MaxJDWords:   1500,
		MinQuestions: 15,
	}
}

// Submit validates the job description and the caller's claim on the
// credential, records a pending request, and starts the pipeline in the
// background. The pending row is returned immediately; its terminal state is
// observed via Get.
//
// Validation failures and a foreign or absent credential reject the
// submission outright: no pending row is ever created for them.
func (s *GenerationService) Submit(ctx context.Context, userID, credentialID, jobDescription string) (*domain.GenerationRequest, error) {
	jd := strings.TrimSpace(jobDescription)
	if jd == "" {
		return nil, ErrEmptyJobDescription
	}
	if s.MaxJDWords > 0 && len(strings.Fields(jd)) > s.MaxJDWords {
		return nil, fmt.Errorf("%w: limit is %d words", ErrJobDescriptionTooLong, s.MaxJDWords)
	}

	cred, err := repo.GetCredential(ctx, s.DB, credentialID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}

	gen, err := repo.CreateGenerationRequest(ctx, s.DB, userID, credentialID, jd)
	if err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// Detached from the caller: closing the HTTP request must not cancel
		// a run that is already paid for.
		runCtx, cancel := context.WithTimeout(context.Background(), s.timeout())
		defer cancel()
		s.run(runCtx, gen, cred)
	}()

	return gen, nil
}

// run executes one pipeline pass and always leaves the request terminal.
func (s *GenerationService) run(ctx context.Context, gen *domain.GenerationRequest, cred *domain.Credential) {
	key, err := s.Cipher.Decrypt(cred.Ciphertext)
	if err != nil {
		log.Error().Err(err).Str("generation_id", gen.ID).Msg("credential decryption failed")
		s.fail(ctx, gen, "stored credential could not be decrypted", "")
		return
	}

	result, err := s.Engine.GenerateQuestions(ctx, gen.JobDescription, key)
	if err != nil {
		s.fail(ctx, gen, engineFailureDetail(err, key), key)
		return
	}
	// A completed request always carries questions. Implementations are
	// expected to validate their output, but the state machine must not
	// depend on that.
	total := 0
	if result != nil {
		total = result.TotalQuestions()
	}
	if total == 0 {
		s.fail(ctx, gen, "engine returned no questions", key)
		return
	}
	if total < s.MinQuestions {
		log.Warn().Int("total", total).Int("requested", s.MinQuestions).
			Str("generation_id", gen.ID).Msg("engine returned fewer questions than requested")
	}

	skills, err := marshalSkills(result.ExtractedSkills)
	if err != nil {
		s.fail(ctx, gen, "engine result could not be stored", key)
		return
	}

	questions := buildQuestions(gen.ID, result.Flatten())
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateQuestions(ctx, tx, questions); err != nil {
			return err
		}
		return repo.CompleteGenerationRequest(ctx, tx, gen.ID, result.RoleLevel, skills)
	})
	if err != nil {
		// ErrNotFound here means another writer already sealed the request;
		// the transaction rolled the batch back, nothing to clean up.
		if !errors.Is(err, repo.ErrNotFound) {
			log.Error().Err(err).Str("generation_id", gen.ID).Msg("completion commit failed")
			s.fail(ctx, gen, "generated questions could not be stored", key)
		}
		return
	}

	if err := repo.RecordCredentialUsage(ctx, s.DB, cred.ID); err != nil {
		log.Error().Err(err).Str("credential_id", cred.ID).Msg("usage increment failed")
	}
	generationOutcomes.WithLabelValues("completed").Inc()
	if s.Audit != nil {
		s.Audit.Record(ctx, gen.UserID, ActionGenerationCompleted, "generation_request", gen.ID,
			map[string]any{"questions": len(questions), "role_level": result.RoleLevel})
	}
	log.Info().Str("generation_id", gen.ID).Int("questions", len(questions)).Msg("generation completed")
}

// fail seals the request in the failed state with a sanitized detail. A
// request that already reached a terminal state is left untouched.
func (s *GenerationService) fail(ctx context.Context, gen *domain.GenerationRequest, detail, key string) {
	// The deadline that killed the run must not also kill the bookkeeping.
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
	}
	detail = scrubKey(detail, key)
	if err := repo.FailGenerationRequest(ctx, s.DB, gen.ID, detail); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			log.Error().Err(err).Str("generation_id", gen.ID).Msg("failure transition did not persist")
		}
		return
	}
	generationOutcomes.WithLabelValues("failed").Inc()
	if s.Audit != nil {
		s.Audit.Record(ctx, gen.UserID, ActionGenerationFailed, "generation_request", gen.ID,
			map[string]any{"detail": detail})
	}
	log.Warn().Str("generation_id", gen.ID).Str("detail", detail).Msg("generation failed")
}

// Get fetches one generation request owned by userID.
func (s *GenerationService) Get(ctx context.Context, userID, id string) (*domain.GenerationRequest, error) {
	g, err := repo.GetGenerationRequest(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return g, nil
}

// Count returns the total number of requests owned by userID.
func (s *GenerationService) Count(ctx context.Context, userID string) (int64, error) {
	return repo.CountGenerationRequests(ctx, s.DB, userID)
}

// ListPage returns one page of the caller's requests, newest first.
func (s *GenerationService) ListPage(ctx context.Context, userID string, offset, limit int) ([]domain.GenerationRequest, error) {
	return repo.ListGenerationRequestsPage(ctx, s.DB, userID, offset, limit)
}

// Questions returns the question batch of one request owned by userID. The
// request must exist for the caller; a pending or failed request yields an
// empty batch.
func (s *GenerationService) Questions(ctx context.Context, userID, generationID string) ([]domain.Question, error) {
	if _, err := s.Get(ctx, userID, generationID); err != nil {
		return nil, err
	}
	return repo.ListQuestions(ctx, s.DB, generationID, userID)
}

// Wait blocks until every in-flight pipeline run has reached a terminal
// state. Called during graceful shutdown.
func (s *GenerationService) Wait() {
	s.wg.Wait()
}

func (s *GenerationService) timeout() time.Duration {
	if s.Timeout <= 0 {
		return 120 * time.Second
	}
	return s.Timeout
}

// buildQuestions maps the engine's flattened output onto persistence rows.
func buildQuestions(generationID string, flat []llm.FlatQuestion) []domain.Question {
	now := time.Now().UTC()
	out := make([]domain.Question, 0, len(flat))
	for _, q := range flat {
		signals, err := marshalSkills(q.ExpectedSignals)
		if err != nil {
			signals = nil
		}
		out = append(out, domain.Question{
			ID:              uuid.NewString(),
			GenerationID:    generationID,
			Code:            q.Code,
			SectionTitle:    q.SectionTitle,
			Skill:           q.Skill,
			QuestionType:    q.Type,
			Difficulty:      q.Difficulty,
			QuestionText:    q.Text,
			ExpectedSignals: signals,
			CreatedAt:       now,
		})
	}
	return out
}

// engineFailureDetail condenses an engine error into a storable summary.
func engineFailureDetail(err error, key string) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "engine call timed out"
	case errors.Is(err, llm.ErrMalformedResult):
		return "engine returned a malformed result: " + scrubKey(err.Error(), key)
	default:
		return "engine call failed: " + scrubKey(err.Error(), key)
	}
}

// scrubKey removes any echo of the plaintext key from a message destined for
// storage or logs.
func scrubKey(msg, key string) string {
	if key == "" {
		return msg
	}
	return strings.ReplaceAll(msg, key, "[redacted]")
}

func marshalSkills(items []string) (datatypes.JSON, error) {
	if len(items) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
