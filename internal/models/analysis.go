package models

import "time"

type AnalysisType string

const (
	AnalysisRelationships AnalysisType = "relationships"
	AnalysisConsciousness AnalysisType = "consciousness"
	AnalysisGrowth        AnalysisType = "growth"
	AnalysisMindfulness   AnalysisType = "mindfulness"
	AnalysisInnerConflict AnalysisType = "inner-conflict"
)

// AnalysisResult is the decoded JSON object a model produced for one analysis.
type AnalysisResult struct {
	Type        AnalysisType   `json:"type"`
	Data        map[string]any `json:"data"`
	Model       string         `json:"model"`
	EntryCount  int            `json:"entryCount"`
	GeneratedAt time.Time      `json:"generatedAt"`
}
