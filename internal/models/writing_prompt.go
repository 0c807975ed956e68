package models

import "time"

type WritingPrompt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Category  string    `gorm:"size:32;not null;index" json:"category"`
	SortOrder int       `gorm:"not null;default:0" json:"sortOrder"`
	IsActive  bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}
