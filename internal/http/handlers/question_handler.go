// Question HTTP handlers.
//
// This file exposes REST endpoints for individual interview questions:
//   - GET  /questions/{id}         (fetch one question)
//   - POST /questions/{id}/answer  (produce or return the model answer)
//
// Answer generation is lazy and sticky: the first successful call persists
// the answer and every later call returns the stored text without another
// engine round trip.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AnswerResponse carries the model answer for one question.
type AnswerResponse struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// GetQuestion godoc
// @ID          getQuestion
// @Summary     Fetch one question
// @Description Returns a question the current user owns through its parent generation request.
// @Tags        Questions
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Question ID (UUID)"  format(uuid)
// @Success     200  {object}  domain.Question
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Question not found"
// @Router      /questions/{id} [get]
func (h *Handlers) GetQuestion(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "question id must be a UUID")
		return
	}
	q, err := h.qSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, q)
}

// GenerateAnswer godoc
// @ID          generateAnswer
// @Summary     Generate or fetch the model answer for a question
// @Description Produces an answer on the first call using the credential that generated the question, then returns the stored answer on every later call.
// @Tags        Questions
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Question ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.AnswerResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Question not found"
// @Failure     502  {object}  handlers.ErrorResponse  "Answer generation failed"
// @Router      /questions/{id}/answer [post]
func (h *Handlers) GenerateAnswer(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "question id must be a UUID")
		return
	}
	answer, err := h.qSvc.GenerateAnswer(c.Request.Context(), userID(c), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, AnswerResponse{QuestionID: id, Answer: answer})
}
