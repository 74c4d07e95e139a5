// Favorite HTTP handlers.
//
// This file exposes REST endpoints for question bookmarks:
//   - POST   /favorites        (bookmark a question; idempotent)
//   - GET    /favorites        (list bookmarks with their questions)
//   - DELETE /favorites/{id}   (remove a bookmark)
//
// Re-bookmarking an already favorited question is not an error. The status
// code tells the two apart: 201 for a new row, 200 for an existing one.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jd2q/go-interview-backend/internal/domain"
)

// AddFavoriteRequest is the JSON payload for bookmarking a question.
type AddFavoriteRequest struct {
	QuestionID string `json:"question_id" binding:"required" format:"uuid"`
}

// FavoriteResponse is the caller-visible projection of a bookmark. Question
// is populated on list responses and omitted elsewhere.
type FavoriteResponse struct {
	ID         string           `json:"id"`
	QuestionID string           `json:"question_id"`
	CreatedAt  time.Time        `json:"created_at"`
	Question   *domain.Question `json:"question,omitempty"`
}

func favoriteResponse(f *domain.Favorite, withQuestion bool) FavoriteResponse {
	out := FavoriteResponse{ID: f.ID, QuestionID: f.QuestionID, CreatedAt: f.CreatedAt}
	if withQuestion && f.Question.ID != "" {
		q := f.Question
		out.Question = &q
	}
	return out
}

// AddFavorite godoc
// @ID          addFavorite
// @Summary     Bookmark a question
// @Description Adds a question to the current user's favorites. Repeating the call for the same question returns the existing bookmark with 200 instead of creating a duplicate.
// @Tags        Favorites
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.AddFavoriteRequest  true  "Favorite payload"
// @Success     201  {object}  handlers.FavoriteResponse  "Newly created"
// @Success     200  {object}  handlers.FavoriteResponse  "Already bookmarked"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Question not found"
// @Router      /favorites [post]
func (h *Handlers) AddFavorite(c *gin.Context) {
	var req AddFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if _, err := uuid.Parse(req.QuestionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "question id must be a UUID")
		return
	}
	fav, created, err := h.favSvc.Add(c.Request.Context(), userID(c), req.QuestionID)
	if err != nil {
		failService(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ok(c, status, favoriteResponse(fav, false))
}

// ListFavorites godoc
// @ID          listFavorites
// @Summary     List bookmarked questions
// @Description Returns the current user's favorites, newest first, each with its question embedded.
// @Tags        Favorites
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}   handlers.FavoriteResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /favorites [get]
func (h *Handlers) ListFavorites(c *gin.Context) {
	favs, err := h.favSvc.List(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list favorites")
		return
	}
	out := make([]FavoriteResponse, 0, len(favs))
	for i := range favs {
		out = append(out, favoriteResponse(&favs[i], true))
	}
	ok(c, http.StatusOK, out)
}

// RemoveFavorite godoc
// @ID          removeFavorite
// @Summary     Remove a bookmark
// @Description Deletes one favorite owned by the current user. The underlying question is untouched.
// @Tags        Favorites
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Favorite ID (UUID)"  format(uuid)
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Favorite not found"
// @Router      /favorites/{id} [delete]
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "favorite id must be a UUID")
		return
	}
	if err := h.favSvc.Remove(c.Request.Context(), userID(c), id); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
