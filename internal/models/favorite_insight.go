package models

import "time"

type FavoriteInsight struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"userId"`
	Sage            string    `gorm:"size:32;not null" json:"sage"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	OriginalContent string    `gorm:"type:text" json:"originalContent,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}
