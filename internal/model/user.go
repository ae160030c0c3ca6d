package model

import (
	"time"
)

// Role 用户角色
type Role string

const (
	RoleClient    Role = "CLIENT"    // 客户
	RoleAdmin     Role = "ADMIN"     // 管理员
	RoleDeveloper Role = "DEVELOPER" // 开发人员
)

// IsTeam 判断是否为团队角色
func (r Role) IsTeam() bool {
	return r == RoleAdmin || r == RoleDeveloper
}

// Valid 判断角色是否合法
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleAdmin || r == RoleDeveloper
}

// UserModel 用户模型
// 身份认证由外部服务签发的JWT完成，本服务只保存用户的基础档案
type UserModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name  string `json:"name" gorm:"not null"`
	Email string `json:"email" gorm:"not null;uniqueIndex"`
	Role  Role   `json:"role" gorm:"not null;default:'CLIENT'"`
}

// TableName 自定义表名
func (UserModel) TableName() string {
	return "user"
}
