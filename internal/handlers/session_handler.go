package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "gharkharcha/internal/errors"
	"gharkharcha/internal/models"
	"gharkharcha/internal/services"
)

// TokenSession signs the daemon in and out with auth service tokens.
type TokenSession interface {
	SignIn(token string) (*models.Identity, error)
	SignOut()
	ExpiresAt() time.Time
}

// SessionHandler handles sign in and sign out.
type SessionHandler struct {
	tokens  TokenSession
	session services.SessionServicer
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(tokens TokenSession, session services.SessionServicer) *SessionHandler {
	return &SessionHandler{tokens: tokens, session: session}
}

// SignInRequest represents the sign in payload.
type SignInRequest struct {
	Token string `json:"token" binding:"required"`
}

// SessionResponse describes the active session.
type SessionResponse struct {
	Identity  *models.Identity `json:"identity"`
	Loading   bool             `json:"loading"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`
}

// SignIn handles sign in with a token from the auth service.
// @Summary     Sign in
// @Description Verify an auth service token and open the session's subscriptions
// @Tags        session
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body SignInRequest true "Auth token"
// @Success     201 {object} SessionResponse "Signed in"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid or expired token"
// @Router      /session [post]
func (h *SessionHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	identity, err := h.tokens.SignIn(req.Token)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SessionResponse{
		Identity:  identity,
		Loading:   h.session.Loading(),
		ExpiresAt: h.expiresAt(),
	})
}

// GetSession handles retrieving the active session.
// @Summary     Get session
// @Description Get the signed-in identity and whether the first snapshots are still loading
// @Tags        session
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} SessionResponse "Active session"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Router      /session [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	identity, ok := requireIdentity(c, h.session)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Identity:  identity,
		Loading:   h.session.Loading(),
		ExpiresAt: h.expiresAt(),
	})
}

// SignOut handles ending the session.
// @Summary     Sign out
// @Description End the session and drop every mirrored collection
// @Tags        session
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} MessageResponse "Signed out"
// @Router      /session [delete]
func (h *SessionHandler) SignOut(c *gin.Context) {
	h.tokens.SignOut()
	c.JSON(http.StatusOK, MessageResponse{Message: "Signed out"})
}

func (h *SessionHandler) expiresAt() *time.Time {
	exp := h.tokens.ExpiresAt()
	if exp.IsZero() {
		return nil
	}
	return &exp
}
