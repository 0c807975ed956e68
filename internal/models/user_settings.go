package models

import "time"

type UserSettings struct {
	UserID uint   `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	Theme  string `gorm:"not null;default:system" json:"theme"` // "light" | "dark" | "system"
	Locale string `gorm:"not null;default:zh-CN" json:"locale"`
	// Personas is a comma separated list of preferred persona keys; empty means all.
	Personas  string    `gorm:"size:128" json:"personas"`
	UpdatedAt time.Time `json:"updatedAt"`
}
