package services

import (
	"context"
	"errors"
	"testing"
)

func newQuestionSvc(t *testing.T, engine *fakeEngine) (*QuestionService, *fakeAudit) {
	t.Helper()
	db := newSvcDB(t)
	audit := &fakeAudit{}
	return NewQuestionService(db, engine, testCipher(t), audit), audit
}

func TestQuestionService_GenerateAnswer_FirstCallPersists(t *testing.T) {
	engine := &fakeEngine{answer: "Use channels."}
	s, audit := newQuestionSvc(t, engine)
	seedUser(t, s.DB, "u1")
	cred := seedCredential(t, s.DB, s.Cipher, "u1", "sk-key-1")
	gen := seedGeneration(t, s.DB, "u1", cred.ID)
	q := seedQuestion(t, s.DB, gen.ID)

	got, err := s.GenerateAnswer(context.Background(), "u1", q.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "Use channels." {
		t.Errorf("answer = %q", got)
	}
	if engine.lastKey != "sk-key-1" {
		t.Errorf("engine saw key %q", engine.lastKey)
	}
	if !audit.has(ActionAnswerGenerated) {
		t.Errorf("answer not audited")
	}

	// Second call returns the stored answer without another engine trip.
	again, err := s.GenerateAnswer(context.Background(), "u1", q.ID)
	if err != nil || again != got {
		t.Fatalf("repeat = %q, %v", again, err)
	}
	if _, answers := engine.calls(); answers != 1 {
		t.Errorf("engine answer calls = %d; want 1", answers)
	}
}

func TestQuestionService_GenerateAnswer_EngineFailureWritesNothing(t *testing.T) {
	engine := &fakeEngine{err: errors.New("quota exceeded for sk-key-1")}
	s, _ := newQuestionSvc(t, engine)
	seedUser(t, s.DB, "u1")
	cred := seedCredential(t, s.DB, s.Cipher, "u1", "sk-key-1")
	gen := seedGeneration(t, s.DB, "u1", cred.ID)
	q := seedQuestion(t, s.DB, gen.ID)

	_, err := s.GenerateAnswer(context.Background(), "u1", q.ID)
	if !errors.Is(err, ErrAnswerFailed) {
		t.Fatalf("err = %v; want ErrAnswerFailed", err)
	}
	reloaded, gerr := s.Get(context.Background(), "u1", q.ID)
	if gerr != nil {
		t.Fatalf("reload: %v", gerr)
	}
	if reloaded.GeneratedAnswer != nil {
		t.Fatalf("failed attempt persisted an answer: %q", *reloaded.GeneratedAnswer)
	}
}

func TestQuestionService_ForeignQuestionLooksMissing(t *testing.T) {
	engine := &fakeEngine{answer: "nope"}
	s, _ := newQuestionSvc(t, engine)
	seedUser(t, s.DB, "u1")
	seedUser(t, s.DB, "u2")
	cred := seedCredential(t, s.DB, s.Cipher, "u1", "sk-key-1")
	gen := seedGeneration(t, s.DB, "u1", cred.ID)
	q := seedQuestion(t, s.DB, gen.ID)

	if _, err := s.Get(context.Background(), "u2", q.ID); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("foreign get: err = %v", err)
	}
	if _, err := s.GenerateAnswer(context.Background(), "u2", q.ID); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("foreign generate: err = %v", err)
	}
	if _, answers := engine.calls(); answers != 0 {
		t.Errorf("engine touched for foreign question")
	}
}
