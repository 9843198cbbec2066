package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
	"github.com/nepallicenseprep/likhit-backend/internal/response"
	"github.com/nepallicenseprep/likhit-backend/internal/service"
	"github.com/nepallicenseprep/likhit-backend/internal/validator"
)

// AuthHandler handles anonymous client tokens.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// IssueClientToken godoc
// POST /api/v1/auth/client
// Issues a client token. Sending an existing client_id renews it so the
// browser keeps its result history.
func (h *AuthHandler) IssueClientToken(c *gin.Context) {
	var req model.ClientTokenRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))
			return
		}
	}

	tok, err := h.authService.IssueClientToken(req.ClientID)
	if err != nil {
		if errors.Is(err, service.ErrTokenInvalid) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, tok)
}
