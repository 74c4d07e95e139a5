package services

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jd2q/go-interview-backend/internal/domain"
	"github.com/jd2q/go-interview-backend/internal/llm"
	"github.com/jd2q/go-interview-backend/internal/repo"
	"github.com/jd2q/go-interview-backend/internal/vault"
)

// ---------- shared test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Credential{},
		&domain.GenerationRequest{},
		&domain.Question{},
		&domain.Favorite{},
		&domain.ActivityLog{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testCipher(t *testing.T) *vault.Cipher {
	t.Helper()
	c, err := vault.NewCipher(bytes.Repeat([]byte{0x42}, vault.MasterKeySize))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	return c
}

func seedUser(t *testing.T, db *gorm.DB, id string) *domain.User {
	t.Helper()
	u, err := repo.UpsertUser(context.Background(), db, id, id+"@example.com", "Tester")
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return u
}

func seedCredential(t *testing.T, db *gorm.DB, c *vault.Cipher, userID, key string) *domain.Credential {
	t.Helper()
	ct, err := c.Encrypt(key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	cred, err := repo.CreateCredential(context.Background(), db, userID, "test key", ct)
	if err != nil {
		t.Fatalf("seed credential: %v", err)
	}
	return cred
}

func seedGeneration(t *testing.T, db *gorm.DB, userID, credentialID string) *domain.GenerationRequest {
	t.Helper()
	g, err := repo.CreateGenerationRequest(context.Background(), db, userID, credentialID, "build things")
	if err != nil {
		t.Fatalf("seed generation: %v", err)
	}
	return g
}

func seedQuestion(t *testing.T, db *gorm.DB, generationID string) *domain.Question {
	t.Helper()
	q := domain.Question{
		ID:           uuid.NewString(),
		GenerationID: generationID,
		Code:         "Q1",
		SectionTitle: "General",
		Skill:        "Go",
		QuestionType: "Conceptual",
		Difficulty:   "Mid",
		QuestionText: "Explain interfaces.",
	}
	if err := repo.CreateQuestions(context.Background(), db, []domain.Question{q}); err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return &q
}

// fakeEngine implements llm.Generator with canned behavior and call counting.
type fakeEngine struct {
	mu            sync.Mutex
	questionCalls int
	answerCalls   int
	lastKey       string

	result *llm.Result
	answer string
	err    error
}

func (f *fakeEngine) GenerateQuestions(_ context.Context, _ string, apiKey string) (*llm.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questionCalls++
	f.lastKey = apiKey
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeEngine) GenerateAnswer(_ context.Context, _ llm.AnswerPrompt, apiKey string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answerCalls++
	f.lastKey = apiKey
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeEngine) calls() (questions, answers int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.questionCalls, f.answerCalls
}

func engineResult() *llm.Result {
	return &llm.Result{
		RoleLevel:       "Senior",
		ExtractedSkills: []string{"Go"},
		Sections: []llm.Section{{
			Title: "Backend", Skill: "Go",
			Questions: []llm.Question{
				{Code: "Q1", Type: "Conceptual", Difficulty: "Mid", Text: "Explain goroutines."},
				{Code: "Q2", Type: "Coding", Difficulty: "Senior", Text: "Design a worker pool."},
			},
		}},
	}
}

// fakeAudit captures recorded actions; safe for concurrent use because the
// pipeline records from a background goroutine.
type fakeAudit struct {
	mu      sync.Mutex
	actions []string
}

func (f *fakeAudit) Record(_ context.Context, _, action, _, _ string, _ map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
}

func (f *fakeAudit) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.actions))
	copy(out, f.actions)
	return out
}

func (f *fakeAudit) has(action string) bool {
	for _, a := range f.recorded() {
		if a == action {
			return true
		}
	}
	return false
}
