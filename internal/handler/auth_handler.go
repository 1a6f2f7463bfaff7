package handler

import (
	"net/http"

	"doc-insight-go/internal/middleware"
	"doc-insight-go/internal/service"
	"doc-insight-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AuthHandler 负责注册、登录、登出和当前用户信息。
type AuthHandler struct {
	userService service.UserService
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(userService service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// CredentialsRequest 定义了注册和登录 API 的请求体结构。
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 处理用户注册请求。
func (h *AuthHandler) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	p, tok, err := h.userService.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		log.Warnw("Register: 注册失败", "error", err)
		writeError(c, err, "Internal server error")
		return
	}
	respond(c, http.StatusCreated, "User registered successfully", gin.H{"user": p, "token": tok})
}

// Login 处理用户登录请求。
func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	ctx := c.Request.Context()
	p, err := h.userService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		writeError(c, err, "Internal server error")
		return
	}
	tok, err := h.userService.Login(ctx, p)
	if err != nil {
		writeError(c, err, "Internal server error")
		return
	}
	respond(c, http.StatusOK, "Login successful", gin.H{"user": p, "token": tok})
}

// Logout 使当前 token 失效。
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.userService.Logout(c.Request.Context(), middleware.TokenFrom(c)); err != nil {
		writeError(c, err, "Internal server error")
		return
	}
	respond(c, http.StatusOK, "Logged out successfully", nil)
}

// Me 返回当前登录用户的信息。
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	user, err := h.userService.Profile(c.Request.Context(), p)
	if err != nil {
		writeError(c, err, "Internal server error")
		return
	}
	respond(c, http.StatusOK, "success", gin.H{"user": user})
}
