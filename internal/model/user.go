package model

import (
	"time"

	"gorm.io/gorm"
)

// 用户角色
const (
	RoleIntern = "intern"
	RoleAdmin  = "admin"
)

// User 用户表 — 对应 users
// 实习生通过工号 + 个人访问令牌登录；管理员通过邮箱 + 密码登录
type User struct {
	ID              string     `gorm:"type:uuid;primaryKey"                      json:"id"`
	Code            string     `gorm:"type:varchar(32);not null;uniqueIndex"     json:"code"`
	Name            string     `gorm:"type:varchar(100);not null"                json:"name"`
	Email           string     `gorm:"type:varchar(255);not null;uniqueIndex"    json:"email"`
	Role            string     `gorm:"type:varchar(20);not null;default:'intern'" json:"role"`
	PasswordHash    string     `gorm:"type:varchar(255)"                         json:"-"`
	SlackUserID     string     `gorm:"type:varchar(64)"                          json:"slack_user_id,omitempty"`
	AccessTokenHash string     `gorm:"type:varchar(64);index"                    json:"-"`
	TokenExpiresAt  *time.Time `                                                 json:"token_expires_at,omitempty"`
	IsActive        bool       `gorm:"not null;default:true"                     json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	newID(&u.ID)
	return nil
}

// IsIntern 是否为实习生
func (u *User) IsIntern() bool { return u.Role == RoleIntern }
