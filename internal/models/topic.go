package models

// Topic is a generated journaling question.
type Topic struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
	Icon     string `json:"icon"`
}
