package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BillBrieferServer/scribe/internal/transport/http/middleware"
	"github.com/BillBrieferServer/scribe/internal/usecase"
)

// SessionCookie describes how session tokens are written to the browser.
type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

func (sc SessionCookie) name() string {
	if sc.Name == "" {
		return middleware.DefaultSessionCookie
	}
	return sc.Name
}

func (sc SessionCookie) set(c *gin.Context, token string) {
	maxAge := int(sc.TTL / time.Second)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.name(), token, maxAge, "/", "", sc.Secure, true)
}

func (sc SessionCookie) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.name(), "", -1, "/", "", sc.Secure, true)
}

// AuthHandler exposes login and logout endpoints.
type AuthHandler struct {
	auth   *usecase.AuthService
	cookie SessionCookie
}

func NewAuthHandler(auth *usecase.AuthService, cookie SessionCookie) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie}
}

// Login authenticates with email and password and establishes a session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid email or password"},
			{Err: usecase.ErrEmailNotVerified, Status: http.StatusForbidden, Message: "email address is not verified"},
		}, http.StatusInternalServerError, "failed to log in")
		return
	}

	h.cookie.set(c, token)

	c.JSON(http.StatusOK, SessionResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.cookie.TTL).UTC().Format(time.RFC3339),
	})
}

// Logout revokes the current session and clears the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.SessionToken(c, h.cookie.name())
	if token != "" {
		if err := h.auth.Logout(c.Request.Context(), token); err != nil && !errors.Is(err, usecase.ErrUnauthenticated) {
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to log out"))
			return
		}
	}

	h.cookie.clear(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}
