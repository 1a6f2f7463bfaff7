// Package model 定义了与数据库表对应的 Go 结构体以及跨层共享的领域类型。
package model

import "time"

// User 对应 users 表。Password 只保存 bcrypt 哈希，且永不序列化到响应中。
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}

// Principal 是通过认证后在各层之间传递的用户身份。
// 只能由认证服务或认证中间件构造。
type Principal struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

// Principal 返回该用户对应的身份。
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Email: u.Email}
}
