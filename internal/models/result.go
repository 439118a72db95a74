package models

import "time"

// RetrievedChunk is one retrieval hit. Rank is 1-based.
type RetrievedChunk struct {
	Chunk *Chunk  `json:"chunk"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// Answer is the result of one question-answer exchange.
type Answer struct {
	Question string            `json:"question"`
	Text     string            `json:"answer"`
	Sources  []*RetrievedChunk `json:"sources"`
	Backend  string            `json:"backend"`
	Duration time.Duration     `json:"duration_ns"`
}

// Role is the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a session transcript. Transcripts are a display log only.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
