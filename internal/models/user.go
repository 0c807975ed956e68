package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User mirrors the identity forwarded by the upstream auth provider.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ExternalID   string    `gorm:"size:64;not null;uniqueIndex" json:"externalId"`
	Name         string    `gorm:"size:120" json:"name"`
	Email        string    `gorm:"size:320" json:"email"`
	Role         string    `gorm:"size:16;not null;default:user" json:"role"`
	LastSignedIn time.Time `json:"lastSignedIn"`
}
