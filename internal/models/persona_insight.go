package models

// PersonaInsight is one sage's reply to a piece of journal text. Entries store
// a list of these as an opaque JSON column.
type PersonaInsight struct {
	Key     string `json:"key"`
	Sage    string `json:"sage"`
	Emoji   string `json:"emoji"`
	Style   string `json:"style,omitempty"`
	Insight string `json:"insight"`
	// Degraded marks canned text shown because the model call failed.
	Degraded bool `json:"degraded,omitempty"`
}
