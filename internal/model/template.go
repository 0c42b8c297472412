package model

import (
	"time"

	"github.com/screenquest/screenquest/internal/economy"
)

// TaskTemplate is a reusable task definition used to seed new assignments.
// Builtin templates ship with the app; members can save custom ones.
type TaskTemplate struct {
	ID             int64         `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Category       string        `json:"category"`
	SuggestedLevel economy.Level `json:"suggested_level"`
	Builtin        bool          `json:"builtin"`
	CreatedBy      *int64        `json:"created_by"`
	CreatedAt      time.Time     `json:"created_at"`
}
