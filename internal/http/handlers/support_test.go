package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jd2q/go-interview-backend/internal/domain"
	"github.com/jd2q/go-interview-backend/internal/http/middleware"
	"github.com/jd2q/go-interview-backend/internal/llm"
	"github.com/jd2q/go-interview-backend/internal/vault"
)

// ---------- test DB ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(
		&domain.User{}, &domain.Credential{}, &domain.GenerationRequest{},
		&domain.Question{}, &domain.Favorite{}, &domain.ActivityLog{},
		&domain.Idempotency{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestCipher(t *testing.T) *vault.Cipher {
	t.Helper()
	c, err := vault.NewCipher(bytes.Repeat([]byte{0x42}, 32))
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	return c
}

// seedHandlerUser inserts a user row so FK constraints hold.
func seedHandlerUser(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	u := &domain.User{ID: id, Email: id + "@example.com", DisplayName: "T"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

// newAuthedRouter builds a bare engine that injects uid the way the auth
// middleware does, so userID(c) resolves inside handlers under test.
func newAuthedRouter(uid string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.CtxUserID, uid)
		c.Next()
	})
	return r
}

// ---------- engine stub ----------

type stubEngine struct {
	result *llm.Result
	answer string
	err    error
}

func (s stubEngine) GenerateQuestions(ctx context.Context, jd, key string) (*llm.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s stubEngine) GenerateAnswer(ctx context.Context, p llm.AnswerPrompt, key string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func stubResult() *llm.Result {
	return &llm.Result{
		RoleLevel:       "Senior",
		ExtractedSkills: []string{"Go"},
		Sections: []llm.Section{{
			Title: "Core", Skill: "Go",
			Questions: []llm.Question{
				{Code: "Q1", Type: "technical", Difficulty: "medium", Text: "Explain goroutines."},
				{Code: "Q2", Type: "technical", Difficulty: "hard", Text: "Explain the race detector."},
			},
		}},
	}
}

// ---------- flexible service stubs ----------

type stubCredSvc struct {
	register func(context.Context, string, string, string) (*domain.Credential, string, error)
	list     func(context.Context, string) ([]domain.Credential, error)
	remove   func(context.Context, string, string) error
}

func (s stubCredSvc) Register(ctx context.Context, u, label, key string) (*domain.Credential, string, error) {
	if s.register != nil {
		return s.register(ctx, u, label, key)
	}
	return &domain.Credential{ID: uuid.NewString(), UserID: u, Label: label}, "xxxx...xxxx", nil
}

func (s stubCredSvc) List(ctx context.Context, u string) ([]domain.Credential, error) {
	if s.list != nil {
		return s.list(ctx, u)
	}
	return nil, nil
}

func (s stubCredSvc) Remove(ctx context.Context, u, id string) error {
	if s.remove != nil {
		return s.remove(ctx, u, id)
	}
	return nil
}

type stubGenSvc struct {
	submit    func(context.Context, string, string, string) (*domain.GenerationRequest, error)
	get       func(context.Context, string, string) (*domain.GenerationRequest, error)
	count     func(context.Context, string) (int64, error)
	listPage  func(context.Context, string, int, int) ([]domain.GenerationRequest, error)
	questions func(context.Context, string, string) ([]domain.Question, error)
}

func (s stubGenSvc) Submit(ctx context.Context, u, cid, jd string) (*domain.GenerationRequest, error) {
	if s.submit != nil {
		return s.submit(ctx, u, cid, jd)
	}
	return &domain.GenerationRequest{ID: uuid.NewString(), UserID: u, CredentialID: cid, JobDescription: jd, Status: domain.StatusPending}, nil
}

func (s stubGenSvc) Get(ctx context.Context, u, id string) (*domain.GenerationRequest, error) {
	if s.get != nil {
		return s.get(ctx, u, id)
	}
	return &domain.GenerationRequest{ID: id, UserID: u, Status: domain.StatusPending}, nil
}

func (s stubGenSvc) Count(ctx context.Context, u string) (int64, error) {
	if s.count != nil {
		return s.count(ctx, u)
	}
	return 0, nil
}

func (s stubGenSvc) ListPage(ctx context.Context, u string, off, lim int) ([]domain.GenerationRequest, error) {
	if s.listPage != nil {
		return s.listPage(ctx, u, off, lim)
	}
	return nil, nil
}

func (s stubGenSvc) Questions(ctx context.Context, u, gid string) ([]domain.Question, error) {
	if s.questions != nil {
		return s.questions(ctx, u, gid)
	}
	return nil, nil
}

type stubQSvc struct {
	get    func(context.Context, string, string) (*domain.Question, error)
	answer func(context.Context, string, string) (string, error)
}

func (s stubQSvc) Get(ctx context.Context, u, id string) (*domain.Question, error) {
	if s.get != nil {
		return s.get(ctx, u, id)
	}
	return &domain.Question{ID: id}, nil
}

func (s stubQSvc) GenerateAnswer(ctx context.Context, u, id string) (string, error) {
	if s.answer != nil {
		return s.answer(ctx, u, id)
	}
	return "", nil
}

type stubFavSvc struct {
	add    func(context.Context, string, string) (*domain.Favorite, bool, error)
	list   func(context.Context, string) ([]domain.Favorite, error)
	remove func(context.Context, string, string) error
}

func (s stubFavSvc) Add(ctx context.Context, u, qid string) (*domain.Favorite, bool, error) {
	if s.add != nil {
		return s.add(ctx, u, qid)
	}
	return &domain.Favorite{ID: uuid.NewString(), UserID: u, QuestionID: qid}, true, nil
}

func (s stubFavSvc) List(ctx context.Context, u string) ([]domain.Favorite, error) {
	if s.list != nil {
		return s.list(ctx, u)
	}
	return nil, nil
}

func (s stubFavSvc) Remove(ctx context.Context, u, id string) error {
	if s.remove != nil {
		return s.remove(ctx, u, id)
	}
	return nil
}

type stubUserSvc struct {
	get    func(context.Context, string) (*domain.User, error)
	update func(context.Context, string, string) (*domain.User, error)
}

func (s stubUserSvc) Get(ctx context.Context, id string) (*domain.User, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return &domain.User{ID: id}, nil
}

func (s stubUserSvc) UpdateDisplayName(ctx context.Context, id, name string) (*domain.User, error) {
	if s.update != nil {
		return s.update(ctx, id, name)
	}
	return &domain.User{ID: id, DisplayName: name}, nil
}

type stubActSvc struct {
	count    func(context.Context, string) (int64, error)
	listPage func(context.Context, string, int, int) ([]domain.ActivityLog, error)
}

func (s stubActSvc) Count(ctx context.Context, u string) (int64, error) {
	if s.count != nil {
		return s.count(ctx, u)
	}
	return 0, nil
}

func (s stubActSvc) ListPage(ctx context.Context, u string, off, lim int) ([]domain.ActivityLog, error) {
	if s.listPage != nil {
		return s.listPage(ctx, u, off, lim)
	}
	return nil, nil
}

// newStubHandlers wires Handlers with all-default stubs, letting a test
// override just the service it exercises.
func newStubHandlers() *Handlers {
	return New(nil, stubCredSvc{}, stubGenSvc{}, stubQSvc{}, stubFavSvc{}, stubUserSvc{}, stubActSvc{})
}

// newJSONRequest builds a request with an optional JSON body.
func newJSONRequest(method, target, body string) *http.Request {
	if body == "" {
		return httptest.NewRequest(method, target, nil)
	}
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// perform runs one request through the engine and returns the recorder.
func perform(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, newJSONRequest(method, target, body))
	return w
}
