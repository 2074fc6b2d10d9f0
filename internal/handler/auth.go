package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-booking/internal/config"
	"github.com/iliyamo/movie-booking/internal/middleware"
	"github.com/iliyamo/movie-booking/internal/model"
	"github.com/iliyamo/movie-booking/internal/repository"
	"github.com/iliyamo/movie-booking/internal/service"
	"github.com/iliyamo/movie-booking/internal/utils"
)

// UserStore is the user persistence used by the auth endpoints.
type UserStore interface {
	Create(ctx context.Context, email, password, role string, categories []string, cost int) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateCategories(ctx context.Context, id uint64, categories []string) error
}

// TokenStore keeps hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenStore
	Log    *zap.Logger
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Log: log}
}

// ----- DTOs -----

type signupReq struct {
	Email      string   `json:"email" validate:"required,email,max=255"`
	Password   string   `json:"password" validate:"required,min=6,max=72"`
	Categories []string `json:"categories" validate:"max=20,dive,max=50"`
}
type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type categoriesReq struct {
	Categories []string `json:"categories" validate:"max=20,dive,max=50"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID         uint64   `json:"id"`
	Email      string   `json:"email"`
	Role       string   `json:"role"`
	Categories []string `json:"categories"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
	cats := u.Categories
	if cats == nil {
		cats = []string{}
	}
	return userPart{ID: u.ID, Email: u.Email, Role: u.Role, Categories: cats}
}

// Signup creates a customer account and returns tokens immediately.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Email, req.Password, model.RoleCustomer,
		service.NormalizeLabels(req.Categories), h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return respondError(c, h.Log, err, "create user failed")
	}
	return h.issue(ctx, c, http.StatusCreated, u)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return respondError(c, h.Log, err, "query failed")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	return h.issue(ctx, c, http.StatusOK, u)
}

// Refresh rotates a refresh token: the old one is revoked and a new pair
// is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidRefresh) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return respondError(c, h.Log, err, "validate refresh failed")
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return respondError(c, h.Log, err, "revoke refresh failed")
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return respondError(c, h.Log, err, "load user failed")
	}
	return h.issue(ctx, c, http.StatusOK, u)
}

// Logout revokes one refresh token when given in the body, otherwise
// every refresh token of the authenticated user.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return respondError(c, h.Log, err, "logout failed")
		}
		return c.NoContent(http.StatusNoContent)
	}
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return respondError(c, h.Log, err, "logout failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user with their favourite categories.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	u, err := h.Users.GetByID(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, h.Log, err, "load user failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}

// UpdateCategories replaces the user's favourite categories.
func (h *AuthHandler) UpdateCategories(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req categoriesReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	cats := service.NormalizeLabels(req.Categories)
	if err := h.Users.UpdateCategories(c.Request().Context(), uid, cats); err != nil {
		return respondError(c, h.Log, err, "update categories failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": cats})
}

func (h *AuthHandler) issue(ctx context.Context, c echo.Context, status int, u model.User) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return respondError(c, h.Log, err, "issue access failed")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return respondError(c, h.Log, err, "issue refresh failed")
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return respondError(c, h.Log, err, "save refresh failed")
	}
	return c.JSON(status, authResp{
		User:    toUserPart(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}
