package model

import "encoding/json"

// Status is the terminal state of a search
type Status string

const (
	StatusOK     Status = "ok"
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// SearchRequest represents a natural-language search request
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit,omitempty"`
}

// IntentSearchRequest carries an already extracted intent payload
type IntentSearchRequest struct {
	Intent json.RawMessage `json:"intent" binding:"required"`
	Limit  int             `json:"limit,omitempty"`
}

// SearchResponse represents a search result response
type SearchResponse struct {
	SearchID string            `json:"search_id"`
	Status   Status            `json:"status"`
	Message  string            `json:"message,omitempty"`
	Intent   *Intent           `json:"intent,omitempty"`
	Results  []PresentedResult `json:"results"`
	Total    int               `json:"total"` // fused results before truncation
	Degraded []string          `json:"degraded,omitempty"`
	Took     int64             `json:"took_ms"` // Response time in milliseconds
}
