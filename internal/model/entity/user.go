package entity

import "time"

// User portal account, either an admin or a supplier
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Email        string    `json:"email" gorm:"size:256;not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"size:128;not null"`
	Name         string    `json:"name" gorm:"size:128;not null"`
	Role         string    `json:"role" gorm:"size:16;not null;default:supplier"`
	CompanyName  string    `json:"company_name" gorm:"size:256"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Roles
const (
	RoleAdmin    = "admin"
	RoleSupplier = "supplier"
)
