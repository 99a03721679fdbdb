package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/playschool-admin/internal/models"
	"github.com/noah-isme/playschool-admin/internal/service"
	appErrors "github.com/noah-isme/playschool-admin/pkg/errors"
	"github.com/noah-isme/playschool-admin/pkg/response"
)

type identityService interface {
	SignUp(ctx context.Context, email, password string) (*models.Session, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	Logout(ctx context.Context, token string) error
}

type sessionSource interface {
	Session() *models.Session
}

// AuthHandler wires HTTP endpoints to the identity provider.
type AuthHandler struct {
	identity identityService
	state    sessionSource
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(identity identityService, state sessionSource) *AuthHandler {
	return &AuthHandler{identity: identity, state: state}
}

// Register godoc
// @Summary Create an account
// @Description Register a new administrator and open a session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.Credentials true "Sign-up payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sign-up payload"))
		return
	}

	session, err := h.identity.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status < http.StatusInternalServerError {
			appErr = appErrors.Clone(appErr, service.AuthMessage(err))
		}
		response.Error(c, appErr)
		return
	}
	response.Created(c, session)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.Credentials true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	session, err := h.identity.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Logout godoc
// @Summary Sign out
// @Description Revoke the bearer token
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.identity.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Session godoc
// @Summary Current session
// @Description Returns the caller's claims and the session the dashboard state follows
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	payload := gin.H{
		"userId":    claims.UserID,
		"email":     claims.Email,
		"expiresAt": claims.ExpiresAt,
	}
	if h.state != nil {
		if current := h.state.Session(); current != nil {
			current.Token = ""
			payload["active"] = current
		}
	}
	response.JSON(c, http.StatusOK, payload, nil)
}
