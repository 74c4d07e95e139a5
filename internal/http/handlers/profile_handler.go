// Profile HTTP handlers.
//
//   - GET /profile  (fetch the caller's profile)
//   - PUT /profile  (update the display name)
//
// The profile is always the caller's own; there is no cross-user read.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// UpdateProfileRequest is the JSON payload for a profile update.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" binding:"required,min=1,max=80" example:"Jane Doe"`
}

// ProfileResponse is the caller-visible projection of a user profile.
type ProfileResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Fetch the current user's profile
// @Tags        Profile
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.ProfileResponse
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	u, err := h.userSvc.Get(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, ProfileResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	})
}

// UpdateProfile godoc
// @ID          updateProfile
// @Summary     Update the current user's display name
// @Tags        Profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.UpdateProfileRequest  true  "Profile payload"
// @Success     200  {object}  handlers.ProfileResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /profile [put]
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u, err := h.userSvc.UpdateDisplayName(c.Request.Context(), userID(c), strings.TrimSpace(req.DisplayName))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, ProfileResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	})
}
