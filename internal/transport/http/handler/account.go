package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"account-service/internal/app"
	"account-service/internal/model"
	"account-service/internal/transport/http/middleware"
	"account-service/internal/transport/http/response"
)

type AccountService interface {
	Register(ctx context.Context, input app.RegisterInput) (*app.AuthResult, error)
	Login(ctx context.Context, input app.LoginInput) (*app.AuthResult, error)
	Profile(ctx context.Context, userID uint) (*model.Profile, error)
}

type AccountHandler struct {
	accounts AccountService
	logger   *slog.Logger
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

func NewAccountHandler(accounts AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Message(c, http.StatusBadRequest, app.MsgMissingRegisterFields)
		return
	}

	result, err := h.accounts.Register(c.Request.Context(), app.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	response.JSON(c, http.StatusCreated, authResponse(result))
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Message(c, http.StatusBadRequest, app.MsgMissingLoginFields)
		return
	}

	result, err := h.accounts.Login(c.Request.Context(), app.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	h.logger.InfoContext(c.Request.Context(), "user logged in", "user_id", result.User.ID)
	response.JSON(c, http.StatusOK, authResponse(result))
}

func (h *AccountHandler) Profile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Message(c, http.StatusUnauthorized, app.MsgSessionExpired)
		return
	}

	profile, err := h.accounts.Profile(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	response.JSON(c, http.StatusOK, profile)
}

func authResponse(result *app.AuthResult) AuthResponse {
	return AuthResponse{
		ID:       result.User.ID,
		Username: result.User.Username,
		Email:    result.User.Email,
		Token:    result.Token,
	}
}
