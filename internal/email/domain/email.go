package domain

import (
	"time"

	"golang.org/x/oauth2"
	"gorm.io/datatypes"
)

// TokenUpdateFunc is a callback that persists a refreshed OAuth token
type TokenUpdateFunc func(token *oauth2.Token) error

// Categories lists every category the classifier may assign, in prompt
// order. The numeric index the model is asked to return is derived from
// this slice (filtered to the user's enabled set), never from map
// iteration, so the mapping is stable across calls.
var Categories = []string{
	"important",
	"work",
	"personal",
	"newsletters",
	"promotions",
	"social",
}

type Email struct {
	ID        string `json:"id" gorm:"primaryKey"`
	UserID    string `json:"user_id" gorm:"uniqueIndex:idx_emails_user_message"`
	MessageID string `json:"message_id" gorm:"uniqueIndex:idx_emails_user_message"`
	ThreadID  string `json:"thread_id"`
	Sender    string `json:"sender"`
	Subject   string `json:"subject"`
	Snippet   string `json:"snippet"`
	Body      string `json:"body"`

	ReceivedAt time.Time `json:"received_at"`
	IsRead     bool      `json:"is_read"`

	// Category is nil when classification yielded no match, not "".
	Category      *string `json:"category,omitempty"`
	IsCategorized bool    `json:"is_categorized"`

	// Embedding holds the JSON-encoded vector, nil when embedding was
	// skipped or failed.
	Embedding datatypes.JSON `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaveStatus is the terminal state of a single item in the import flow.
type SaveStatus string

const (
	StatusInserted         SaveStatus = "inserted"
	StatusInsertedDegraded SaveStatus = "inserted_degraded"
	StatusExists           SaveStatus = "exists"
	StatusError            SaveStatus = "error"
)

// SaveResult is what the persistence writer hands back; it never raises
// past its own boundary.
type SaveResult struct {
	Status SaveStatus
	Err    error
}

// UserImportResult is the transient per-user outcome reported by batch
// imports. It is returned to the caller only, never persisted.
type UserImportResult struct {
	UserID string `json:"user_id"`
	Status string `json:"status"` // "success" or "error"
	Count  int    `json:"count,omitempty"`
	Error  string `json:"error,omitempty"`
}
