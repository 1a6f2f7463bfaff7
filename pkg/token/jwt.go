// Package token 提供了用于生成和验证 JSON Web Tokens (JWT) 的功能。
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager 负责管理会话 token 的签发和验证。
type JWTManager struct {
	secretKey []byte        // secretKey 用于签名和验证 token 的密钥
	tokenDur  time.Duration // tokenDur 定义了 token 的有效期
	now       func() time.Time
}

// CustomClaims 定义了 token 中携带的用户身份。
// Subject 保存用户 ID，Email 保存登录邮箱。
type CustomClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID 从 Subject 中解析用户 ID。
func (c *CustomClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, errors.New("invalid subject")
	}
	return uint(id), nil
}

// NewJWTManager 创建一个新的 JWTManager 实例。
// tokenExpireHours <= 0 时使用 24 小时。
func NewJWTManager(secret string, tokenExpireHours int) *JWTManager {
	if tokenExpireHours <= 0 {
		tokenExpireHours = 24
	}
	return &JWTManager{
		secretKey: []byte(secret),
		tokenDur:  time.Duration(tokenExpireHours) * time.Hour,
		now:       time.Now,
	}
}

// GenerateToken 为给定用户签发一个 HS256 token。
func (m *JWTManager) GenerateToken(userID uint, email string) (string, error) {
	now := m.now()
	claims := CustomClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDur)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// VerifyToken 验证给定的 token 字符串，签名不匹配或已过期时返回错误。
func (m *JWTManager) VerifyToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 检查签名方法是否为 HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// Remaining 返回 token 距离过期的剩余时间，用于设置黑名单 TTL。
func (m *JWTManager) Remaining(claims *CustomClaims) time.Duration {
	if claims.ExpiresAt == nil {
		return m.tokenDur
	}
	return claims.ExpiresAt.Time.Sub(m.now())
}
