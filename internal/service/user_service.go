// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"doc-insight-go/internal/model"
	"doc-insight-go/internal/repository"
	"doc-insight-go/pkg/hash"
	"doc-insight-go/pkg/log"
	"doc-insight-go/pkg/token"
)

// UserService 接口定义了所有与用户认证相关的业务操作。
type UserService interface {
	Register(ctx context.Context, email, password string) (model.Principal, string, error)
	Authenticate(ctx context.Context, email, password string) (model.Principal, error)
	Login(ctx context.Context, principal model.Principal) (string, error)
	VerifyToken(ctx context.Context, tokenString string) (model.Principal, error)
	Logout(ctx context.Context, tokenString string) error
	Profile(ctx context.Context, principal model.Principal) (*model.User, error)
	EnsureUser(ctx context.Context, email, password string) error
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.TokenRepository
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。tokenRepo 为 nil 时登出不会使 token 失效。
func NewUserService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtManager: jwtManager,
	}
}

// dummyPasswordHash 用于用户不存在时仍执行一次 bcrypt 比较，使两种失败的耗时一致。
var dummyPasswordHash = sync.OnceValue(func() string {
	h, err := hash.HashPassword("doc-insight-dummy-password")
	if err != nil {
		panic(err)
	}
	return h
})

// comparePassword 在测试中可替换。
var comparePassword = hash.CheckPasswordHash

// normalizeEmail 去除首尾空白并转为小写，格式非法时返回 ErrInvalidInput。
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("email %q is malformed: %w", email, model.ErrInvalidInput)
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", fmt.Errorf("email %q is malformed: %w", email, model.ErrInvalidInput)
	}
	return email, nil
}

// Register 处理用户注册的业务逻辑，成功后直接签发 token。
func (s *userService) Register(ctx context.Context, email, password string) (model.Principal, string, error) {
	user, err := s.createUser(ctx, email, password)
	if err != nil {
		return model.Principal{}, "", err
	}
	principal := user.Principal()
	tok, err := s.Login(ctx, principal)
	if err != nil {
		return model.Principal{}, "", err
	}
	log.Infow("[UserService] 用户注册成功", "user_id", principal.ID)
	return principal, tok, nil
}

func (s *userService) createUser(ctx context.Context, email, password string) (*model.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, fmt.Errorf("password is required: %w", model.ErrInvalidInput)
	}
	if len(password) > hash.MaxPasswordBytes {
		return nil, fmt.Errorf("password exceeds %d bytes: %w", hash.MaxPasswordBytes, model.ErrInvalidInput)
	}

	// 1. 检查邮箱是否已注册
	_, err = s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("email %s already registered: %w", email, model.ErrConflict)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// 3. 写入数据库；并发注册由唯一索引兜底，返回 ErrConflict
	user := &model.User{Email: email, Password: hashedPassword}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate 校验邮箱和密码。用户不存在与密码错误返回同一个错误。
func (s *userService) Authenticate(ctx context.Context, email, password string) (model.Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return model.Principal{}, fmt.Errorf("email and password are required: %w", model.ErrInvalidInput)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			comparePassword(password, dummyPasswordHash())
			return model.Principal{}, model.ErrInvalidCredentials
		}
		return model.Principal{}, err
	}
	if !comparePassword(password, user.Password) {
		return model.Principal{}, model.ErrInvalidCredentials
	}
	return user.Principal(), nil
}

// Login 为已通过校验的用户签发 token。
func (s *userService) Login(ctx context.Context, principal model.Principal) (string, error) {
	tok, err := s.jwtManager.GenerateToken(principal.ID, principal.Email)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

// VerifyToken 校验签名、有效期以及是否已登出。
// Redis 不可用时按未注销处理，只记录日志。
func (s *userService) VerifyToken(ctx context.Context, tokenString string) (model.Principal, error) {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return model.Principal{}, fmt.Errorf("verify token: %w: %w", model.ErrUnauthorized, err)
	}
	userID, err := claims.UserID()
	if err != nil {
		return model.Principal{}, fmt.Errorf("verify token: %w: %w", model.ErrUnauthorized, err)
	}

	if s.tokenRepo != nil {
		revoked, err := s.tokenRepo.IsRevoked(ctx, tokenString)
		if err != nil {
			log.Warnw("[UserService] 检查 token 黑名单失败，按未注销处理", "user_id", userID, "error", err)
		} else if revoked {
			return model.Principal{}, fmt.Errorf("token has been revoked: %w", model.ErrUnauthorized)
		}
	}
	return model.Principal{ID: userID, Email: claims.Email}, nil
}

// Logout 将 token 加入黑名单直到其自然过期。
func (s *userService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return fmt.Errorf("logout: %w: %w", model.ErrUnauthorized, err)
	}
	if s.tokenRepo == nil {
		log.Warnf("[UserService] 未配置 Redis，登出后 token 仍在有效期内可用")
		return nil
	}
	if err := s.tokenRepo.Revoke(ctx, tokenString, s.jwtManager.Remaining(claims)); err != nil {
		return fmt.Errorf("logout: %w: %w", model.ErrUnavailable, err)
	}
	return nil
}

// Profile 返回当前用户的信息。
func (s *userService) Profile(ctx context.Context, principal model.Principal) (*model.User, error) {
	return s.userRepo.FindByID(ctx, principal.ID)
}

// EnsureUser 幂等地创建初始用户，已存在时什么都不做。
func (s *userService) EnsureUser(ctx context.Context, email, password string) error {
	_, err := s.createUser(ctx, email, password)
	if err == nil {
		log.Infof("[UserService] 已创建初始用户 %s", email)
		return nil
	}
	if errors.Is(err, model.ErrConflict) {
		return nil
	}
	return err
}
