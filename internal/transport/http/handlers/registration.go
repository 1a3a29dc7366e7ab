package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BillBrieferServer/scribe/internal/usecase"
)

// RegistrationHandler exposes endpoints for account registration and
// email verification.
type RegistrationHandler struct {
	registration *usecase.RegistrationService
	cookie       SessionCookie
}

func NewRegistrationHandler(registration *usecase.RegistrationService, cookie SessionCookie) *RegistrationHandler {
	return &RegistrationHandler{registration: registration, cookie: cookie}
}

// Register creates a pending account and mails a verification code.
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email is required"))
		return
	}

	err := h.registration.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAlreadyRegistered, Status: http.StatusConflict, Message: "email already registered"},
			{Err: usecase.ErrWeakPassword, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
			{Err: usecase.ErrDispatchFailed, Status: http.StatusBadGateway, Message: "failed to send verification email"},
		}, http.StatusInternalServerError, "failed to register account")
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: "verification code sent"})
}

// Verify confirms a registration code and establishes the first session.
func (h *RegistrationHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid verification payload"))
		return
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "verification code is required"))
		return
	}

	token, err := h.registration.Verify(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCode, Status: http.StatusBadRequest, Message: "verification code is invalid"},
			{Err: usecase.ErrExpiredCode, Status: http.StatusBadRequest, Message: "verification code has expired"},
		}, http.StatusInternalServerError, "failed to verify code")
		return
	}

	h.cookie.set(c, token)

	c.JSON(http.StatusOK, SessionResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.cookie.TTL).UTC().Format(time.RFC3339),
	})
}
