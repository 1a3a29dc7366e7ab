package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BillBrieferServer/scribe/internal/usecase"
)

// PasswordHandler exposes the password reset flow.
type PasswordHandler struct {
	reset *usecase.PasswordResetService
}

func NewPasswordHandler(reset *usecase.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{reset: reset}
}

// ForgotPassword starts the reset flow. The response is identical whether or
// not the address belongs to an account.
func (h *PasswordHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid password reset payload"))
		return
	}

	if err := h.reset.RequestReset(c.Request.Context(), strings.TrimSpace(req.Email)); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to process password reset"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "if the account exists, a reset code has been sent"})
}

// ResetPassword confirms a reset code and installs the new password. It does
// not establish a session; the caller must log in with the new password.
func (h *PasswordHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid password reset payload"))
		return
	}

	err := h.reset.ConfirmReset(c.Request.Context(), req.Email, strings.TrimSpace(req.Code), req.NewPassword)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCode, Status: http.StatusBadRequest, Message: "reset code is invalid"},
			{Err: usecase.ErrExpiredCode, Status: http.StatusBadRequest, Message: "reset code has expired"},
			{Err: usecase.ErrWeakPassword, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
		}, http.StatusInternalServerError, "failed to reset password")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}
