// Credential HTTP handlers.
//
// This file exposes REST endpoints for the credential vault:
//   - POST   /credentials        (register: encrypt and store a key)
//   - GET    /credentials        (list, no key material)
//   - DELETE /credentials/{id}   (remove; 409 while referenced)
//
// The plaintext key appears exactly once on the wire, in the registration
// request body. Responses carry at most the masked form.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterCredentialRequest is the JSON payload for registering a credential.
type RegisterCredentialRequest struct {
	// Label is the user-chosen display name for the key.
	Label string `json:"label" binding:"required,min=1,max=120" example:"Personal Gemini key"`
	// Key is the plaintext API key. Stored encrypted, returned masked.
	Key string `json:"key" binding:"required,min=1" example:"AIzaSyD-xxxxxxxxxxxxxxxxxxxx"`
}

// CredentialResponse is the caller-visible projection of a credential.
type CredentialResponse struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	MaskedKey  string     `json:"masked_key,omitempty"`
	UsageCount int64      `json:"usage_count"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// RegisterCredential godoc
// @ID          registerCredential
// @Summary     Register an API credential
// @Description Encrypts and stores a third-party API key for the current user. The response carries the only masked rendering the caller will see.
// @Tags        Credentials
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.RegisterCredentialRequest  true  "Credential payload"
// @Success     201  {object}  handlers.CredentialResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /credentials [post]
func (h *Handlers) RegisterCredential(c *gin.Context) {
	var req RegisterCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	cred, masked, err := h.credSvc.Register(c.Request.Context(), userID(c), strings.TrimSpace(req.Label), req.Key)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, CredentialResponse{
		ID:         cred.ID,
		Label:      cred.Label,
		MaskedKey:  masked,
		UsageCount: cred.UsageCount,
		LastUsedAt: cred.LastUsedAt,
		CreatedAt:  cred.CreatedAt,
	})
}

// ListCredentials godoc
// @ID          listCredentials
// @Summary     List registered credentials
// @Description Returns the current user's credentials, newest first, without any key material.
// @Tags        Credentials
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}   handlers.CredentialResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /credentials [get]
func (h *Handlers) ListCredentials(c *gin.Context) {
	creds, err := h.credSvc.List(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list credentials")
		return
	}
	out := make([]CredentialResponse, 0, len(creds))
	for _, cred := range creds {
		out = append(out, CredentialResponse{
			ID:         cred.ID,
			Label:      cred.Label,
			UsageCount: cred.UsageCount,
			LastUsedAt: cred.LastUsedAt,
			CreatedAt:  cred.CreatedAt,
		})
	}
	ok(c, http.StatusOK, out)
}

// RemoveCredential godoc
// @ID          removeCredential
// @Summary     Remove a credential
// @Description Deletes a credential owned by the current user. Refused with 409 while generation requests still reference it.
// @Tags        Credentials
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Credential ID (UUID)"  format(uuid)
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Credential not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Credential in use"
// @Router      /credentials/{id} [delete]
func (h *Handlers) RemoveCredential(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "credential id must be a UUID")
		return
	}
	if err := h.credSvc.Remove(c.Request.Context(), userID(c), id); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
