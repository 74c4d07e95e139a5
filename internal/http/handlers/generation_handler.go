// Generation HTTP handlers.
//
// This file exposes REST endpoints for the question-generation pipeline:
//   - POST /generations                 (submit; 202 with the pending request)
//   - GET  /generations                 (history, paginated, ETag support)
//   - GET  /generations/{id}            (poll one request)
//   - GET  /generations/{id}/questions  (question batch of a completed run)
//   - GET  /generations/{id}/export     (download a completed run as JSON or CSV)
//
// Submission is asynchronous: the response is the pending row and clients
// poll for the terminal state. An Idempotency-Key header makes retries safe;
// a replay returns the originally created request instead of starting a
// second run.
package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jd2q/go-interview-backend/internal/http/middleware"
	"github.com/jd2q/go-interview-backend/internal/repo"

	"github.com/jd2q/go-interview-backend/internal/domain"
)

// SubmitGenerationRequest is the JSON payload for submitting a generation.
type SubmitGenerationRequest struct {
	// CredentialID selects the vaulted key paying for the engine call.
	CredentialID string `json:"credential_id" binding:"required" format:"uuid"`
	// JobDescription is the input text (word-capped server side).
	JobDescription string `json:"job_description" binding:"required"`
}

// ListGenerationsResponse wraps a page of requests and pagination information.
type ListGenerationsResponse struct {
	Generations []domain.GenerationRequest `json:"generations"`
	Pagination  Pagination                 `json:"pagination"`
}

// defaultIdemTTL bounds how long a submission can be replayed by key.
const defaultIdemTTL = 24 * time.Hour

// SubmitGeneration godoc
// @ID          submitGeneration
// @Summary     Submit a job description for question generation
// @Description Validates the input and credential claim, records a pending request, and runs the pipeline in the background. Poll GET /generations/{id} for the terminal state. Send an Idempotency-Key header to make retries safe.
// @Tags        Generations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Client-chosen retry key"
// @Param       body  body  handlers.SubmitGenerationRequest  true  "Submission payload"
// @Success     202  {object}  domain.GenerationRequest
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Credential not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /generations [post]
func (h *Handlers) SubmitGeneration(c *gin.Context) {
	var req SubmitGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if _, err := uuid.Parse(req.CredentialID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "credential id must be a UUID")
		return
	}
	ctx := c.Request.Context()
	uid := userID(c)

	// Replay: a known (user, key) tuple returns the original request.
	idemKey, hasKey := middleware.GetIdempotencyKey(c)
	if hasKey && h.db != nil {
		if rec, err := repo.GetIdempotency(ctx, h.db, uid, idemKey, time.Now().UTC()); err == nil {
			if gen, err := h.genSvc.Get(ctx, uid, rec.GenerationID); err == nil {
				ok(c, http.StatusAccepted, gen)
				return
			}
		}
	}

	gen, err := h.genSvc.Submit(ctx, uid, req.CredentialID, strings.TrimSpace(req.JobDescription))
	if err != nil {
		failService(c, err)
		return
	}

	if hasKey && h.db != nil {
		// Best effort; a lost record only costs one duplicate run on retry.
		if _, err := repo.CreateIdempotency(ctx, h.db, uid, idemKey, gen.ID, http.StatusAccepted, defaultIdemTTL); err != nil && err != repo.ErrDuplicate {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
		}
	}
	ok(c, http.StatusAccepted, gen)
}

// ListGenerations godoc
// @ID          listGenerations
// @Summary     List generation history (paginated)
// @Description Returns a page of the user's generation requests, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Generations
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListGenerationsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /generations [get]
func (h *Handlers) ListGenerations(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if h.db != nil {
		count, maxTS, err := repo.GenerationsStats(ctx, h.db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"generations:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	total, err := h.genSvc.Count(ctx, uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list generations")
		return
	}
	items, err := h.genSvc.ListPage(ctx, uid, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list generations")
		return
	}
	ok(c, http.StatusOK, ListGenerationsResponse{
		Generations: items,
		Pagination:  paginate(page, pageSize, total),
	})
}

// GetGeneration godoc
// @ID          getGeneration
// @Summary     Fetch one generation request
// @Description Returns a request owned by the current user, including its status and, when failed, a sanitized error summary.
// @Tags        Generations
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Generation request ID (UUID)"  format(uuid)
// @Success     200  {object}  domain.GenerationRequest
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Router      /generations/{id} [get]
func (h *Handlers) GetGeneration(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "generation id must be a UUID")
		return
	}
	gen, err := h.genSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, gen)
}

// ListGenerationQuestions godoc
// @ID          listGenerationQuestions
// @Summary     List the questions of one generation
// @Description Returns the question batch of a request owned by the current user. Pending and failed requests yield an empty list.
// @Tags        Generations
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Generation request ID (UUID)"  format(uuid)
// @Success     200  {array}   domain.Question
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Router      /generations/{id}/questions [get]
func (h *Handlers) ListGenerationQuestions(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "generation id must be a UUID")
		return
	}
	questions, err := h.genSvc.Questions(c.Request.Context(), userID(c), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, questions)
}

// ExportGenerationResponse is the JSON export document: the request itself
// plus its full question batch.
type ExportGenerationResponse struct {
	Generation *domain.GenerationRequest `json:"generation"`
	Questions  []domain.Question         `json:"questions"`
}

// ExportGeneration godoc
// @ID          exportGeneration
// @Summary     Download one completed generation
// @Description Returns the request and its question batch as a downloadable attachment. Only completed requests can be exported.
// @Tags        Generations
// @Produce     json
// @Produce     text/csv
// @Security    BearerAuth
// @Param       id      path   string  true   "Generation request ID (UUID)"  format(uuid)
// @Param       format  query  string  false  "Export format"  Enums(json, csv)  default(json)
// @Success     200  {object}  handlers.ExportGenerationResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Request not completed"
// @Router      /generations/{id}/export [get]
func (h *Handlers) ExportGeneration(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "generation id must be a UUID")
		return
	}
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "csv" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "format must be json or csv")
		return
	}

	ctx := c.Request.Context()
	uid := userID(c)
	gen, err := h.genSvc.Get(ctx, uid, id)
	if err != nil {
		failService(c, err)
		return
	}
	if gen.Status != domain.StatusCompleted {
		fail(c, http.StatusConflict, ErrCodeConflict, "only completed generations can be exported")
		return
	}
	questions, err := h.genSvc.Questions(ctx, uid, id)
	if err != nil {
		failService(c, err)
		return
	}

	filename := "interview-questions-" + gen.ID
	if format == "csv" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".csv"))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", questionsCSV(questions))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".json"))
	c.JSON(http.StatusOK, ExportGenerationResponse{Generation: gen, Questions: questions})
}

// questionsCSV renders the question batch as CSV, one row per question with a
// fixed header. Unanswered questions leave the answer column empty.
func questionsCSV(questions []domain.Question) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"code", "section", "skill", "type", "difficulty", "question", "answer"})
	for _, q := range questions {
		answer := ""
		if q.GeneratedAnswer != nil {
			answer = *q.GeneratedAnswer
		}
		_ = w.Write([]string{q.Code, q.SectionTitle, q.Skill, q.QuestionType, q.Difficulty, q.QuestionText, answer})
	}
	w.Flush()
	return buf.Bytes()
}
