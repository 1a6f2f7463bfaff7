// Package hash 提供密码的单向哈希与校验。
package hash

import "golang.org/x/crypto/bcrypt"

// Cost 与旧系统保持一致，已有哈希无需迁移。
const Cost = 10

// MaxPasswordBytes 是 bcrypt 能处理的最大密码长度。
const MaxPasswordBytes = 72

// HashPassword 返回密码的 bcrypt 哈希。
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	return string(bytes), err
}

// CheckPasswordHash 比较明文密码与哈希是否匹配。
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
