package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type JournalEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	UserID   uint  `gorm:"not null;index" json:"userId"`
	PromptID *uint `json:"promptId,omitempty"`
	// PromptText keeps the question as shown, since generated topics have no row.
	PromptText  string `gorm:"type:text" json:"promptText,omitempty"`
	Content     string `gorm:"type:text;not null" json:"content"`
	Category    string `gorm:"size:32;not null" json:"category"`
	IsFreeWrite bool   `gorm:"not null;default:false" json:"isFreeWrite"`
	IsDraft     bool   `gorm:"not null" json:"isDraft"`
	// SageInsights is a JSON array of PersonaInsight, stored opaquely.
	SageInsights string `gorm:"type:text" json:"sageInsights,omitempty"`
}

// Insights decodes the stored sage insights. An empty column yields nil.
func (e *JournalEntry) Insights() ([]PersonaInsight, error) {
	if e.SageInsights == "" {
		return nil, nil
	}
	var out []PersonaInsight
	if err := json.Unmarshal([]byte(e.SageInsights), &out); err != nil {
		return nil, fmt.Errorf("decode sage insights for entry %d: %w", e.ID, err)
	}
	return out, nil
}

func (e *JournalEntry) SetInsights(insights []PersonaInsight) error {
	if len(insights) == 0 {
		e.SageInsights = ""
		return nil
	}
	data, err := json.Marshal(insights)
	if err != nil {
		return fmt.Errorf("encode sage insights: %w", err)
	}
	e.SageInsights = string(data)
	return nil
}
