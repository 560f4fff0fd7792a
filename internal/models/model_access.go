package models

import "time"

// AllowedUser is an approved customer (allow-list).
type AllowedUser struct {
	Email     string    `gorm:"column:email;type:varchar(320);primary_key" json:"email"`
	CreatedBy string    `gorm:"column:created_by;type:varchar(320)" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (AllowedUser) TableName() string { return "allowed_users" }

// BlockedUser overrides every other membership.
type BlockedUser struct {
	Email     string    `gorm:"column:email;type:varchar(320);primary_key" json:"email"`
	Reason    string    `gorm:"column:reason;type:text" json:"reason"`
	CreatedBy string    `gorm:"column:created_by;type:varchar(320)" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (BlockedUser) TableName() string { return "blocked_users" }

type AdminUser struct {
	Email     string    `gorm:"column:email;type:varchar(320);primary_key" json:"email"`
	CreatedBy string    `gorm:"column:created_by;type:varchar(320)" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (AdminUser) TableName() string { return "admin_users" }
