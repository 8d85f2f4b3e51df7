package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "nadlan/internal/errors"
	"nadlan/internal/middleware"
	"nadlan/internal/models"
	"nadlan/internal/services"
)

// AuthHandler handles registration, login and token rotation.
type AuthHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, auditService services.AuditServicer) *AuthHandler {
	return &AuthHandler{userService: userService, auditService: auditService}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the token refresh payload.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthResponse carries a token pair and the signed-in user.
type AuthResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

// RegisterAdvisor handles advisor self-registration
// @Summary     Register an advisor
// @Description Create an advisor account and sign it in
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body services.CreateUserInput true "Advisor details"
// @Success     201 {object} AuthResponse "Advisor registered"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Username taken"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /register/advisor [post]
func (h *AuthHandler) RegisterAdvisor(c *gin.Context) {
	var req services.CreateUserInput
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}
	req.Role = models.RoleAdvisor

	user, err := h.userService.CreateUser(req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, "REGISTER_ADVISOR", "user", user.ID, c.ClientIP(),
		map[string]any{"username": user.Username})

	resp, err := h.issueTokens(user)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// RegisterInvestor handles creation of an investor by an advisor
// @Summary     Register an investor
// @Description Create an investor account. Advisor only.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.CreateUserInput true "Investor details"
// @Success     201 {object} models.User "Investor created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Username taken"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /register [post]
func (h *AuthHandler) RegisterInvestor(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.CreateUserInput
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}
	req.Role = models.RoleInvestor

	user, err := h.userService.CreateUser(req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(principal.UserID, "CREATE_INVESTOR", "user", user.ID, c.ClientIP(),
		map[string]any{"username": user.Username, "name": user.Name})

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Login handles user login
// @Summary     Login
// @Description Authenticate with username and password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "Credentials"
// @Success     200 {object} AuthResponse "Signed in"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     403 {object} ErrorResponse "Inactive user"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.AttemptLogin(req.Username, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp, err := h.issueTokens(user)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, "LOGIN", "user", user.ID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, resp)
}

// Refresh exchanges a refresh token for a new token pair
// @Summary     Refresh tokens
// @Description Rotate the refresh token and issue a new access token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RefreshRequest true "Refresh token"
// @Success     200 {object} AuthResponse "New token pair"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid token"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	claims, err := middleware.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	stored, err := h.userService.GetRefreshTokenHash(claims.UserID)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}
	presented := middleware.HashToken(req.RefreshToken)
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	user, err := h.userService.GetUserByID(claims.UserID)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}
	if user.Status != models.UserStatusActive {
		respondWithError(c, apperrors.ErrInactiveUser)
		return
	}

	resp, err := h.issueTokens(user)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout revokes the caller's refresh token
// @Summary     Logout
// @Description Revoke the current refresh token
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     204 "Signed out"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.userService.StoreRefreshTokenHash(principal.UserID, ""); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(principal.UserID, "LOGOUT", "user", principal.UserID, c.ClientIP(), nil)
	c.Status(http.StatusNoContent)
}

// CurrentUser returns the signed-in user
// @Summary     Current user
// @Description Get the authenticated user's profile
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.User "User profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /user [get]
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(principal.UserID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) issueTokens(user *models.User) (*AuthResponse, error) {
	access, err := middleware.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	refresh, err := middleware.GenerateRefreshToken(user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := h.userService.StoreRefreshTokenHash(user.ID, middleware.HashToken(refresh)); err != nil {
		return nil, err
	}
	return &AuthResponse{AccessToken: access, RefreshToken: refresh, User: user}, nil
}
