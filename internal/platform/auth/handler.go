package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthService interface {
	Login(ctx context.Context, id, password string) (*Token, error)
	Register(ctx context.Context, id, password, role string, memberID *string) error
	Delete(ctx context.Context, id string) error
}

type AuthHandler struct{ svc AuthService }

// RegisterRoutes mounts /auth/login on public and the account routes on protected,
// which must already carry RequireAuth.
func RegisterRoutes(public, protected gin.IRoutes, svc AuthService) {
	h := &AuthHandler{svc: svc}
	public.POST("/auth/login", h.Login)
	protected.GET("/auth/me", h.Me)
	protected.POST("/auth/accounts", RequireRole(RoleAdmin), h.Register)
	protected.DELETE("/auth/accounts/:id", RequireRole(RoleAdmin), h.DeleteAccount)
}

type LoginRequest struct {
	ID       string `json:"id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_ARGUMENT", "id and password are required"))
		return
	}

	tok, err := h.svc.Login(c.Request.Context(), req.ID, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, tok)
	case errors.Is(err, ErrInvalidLogin), errors.Is(err, ErrDisabled):
		c.JSON(http.StatusUnauthorized, errorBody("UNAUTHENTICATED", "invalid id or password"))
	default:
		slog.Error("login failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL", "login failed"))
	}
}

func (h *AuthHandler) Me(c *gin.Context) {
	s, ok := SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorBody("UNAUTHENTICATED", "no session"))
		return
	}
	c.JSON(http.StatusOK, s)
}

type RegisterRequest struct {
	ID       string  `json:"id" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Role     *string `json:"role,omitempty"` // 未指定なら member
	MemberID *string `json:"member_id,omitempty"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_ARGUMENT", "invalid json"))
		return
	}

	role := RoleMember
	if req.Role != nil && *req.Role != "" {
		role = *req.Role
	}

	err := h.svc.Register(c.Request.Context(), req.ID, req.Password, role, req.MemberID)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"id": req.ID, "role": role})
	case errors.Is(err, ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorBody("INVALID_ARGUMENT", err.Error()))
	case errors.Is(err, ErrAlreadyExists):
		c.JSON(http.StatusConflict, errorBody("CONFLICT", "id already exists"))
	default:
		slog.Error("register failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL", "register failed"))
	}
}

func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody("NOT_FOUND", "account not found"))
	default:
		slog.Error("delete account failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL", "delete failed"))
	}
}
