// Auth HTTP handlers.
//
// This file exposes the session endpoints:
//   - POST /auth/register
//   - POST /auth/login
//
// Both are auth-exempt and return a bearer token for the session middleware.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finchat/go-finance-chat-backend/internal/domain"
	"github.com/finchat/go-finance-chat-backend/internal/services"
)

// CredentialsRequest is the JSON payload for register and login.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required" example:"alice@example.com"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse carries the issued token and the public user fields.
type SessionResponse struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

// SessionUser is the user shape returned by the auth endpoints.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func sessionResponse(user *domain.User, token string) SessionResponse {
	return SessionResponse{
		Token: token,
		User:  SessionUser{ID: user.ID, Email: user.Email},
	}
}

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Registers a new account and returns a session token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CredentialsRequest  true  "Credentials"
//
// @Success     201  {object} handlers.SessionResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid email or weak password"
// @Failure     409  {object} handlers.ErrorResponse "Email already registered"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password required")
		return
	}

	user, token, err := h.authSvc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEmail), errors.Is(err, services.ErrWeakPassword):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrEmailTaken):
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, sessionResponse(user, token))
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies credentials and returns a session token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CredentialsRequest  true  "Credentials"
//
// @Success     200  {object} handlers.SessionResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing fields"
// @Failure     401  {object} handlers.ErrorResponse "Invalid credentials"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password required")
		return
	}

	user, token, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, sessionResponse(user, token))
}
