package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"gorm.io/datatypes"
)

// Document source types.
const (
	SourceNotion     = "notion"
	SourceGoogleDocs = "google_docs"
	SourceMarkdown   = "markdown"
	SourceObsidian   = "obsidian"
)

type Document struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"uniqueIndex:idx_documents_user_checksum"`

	// Checksum is the dedup key: identical content under different URLs
	// collapses to one record.
	Checksum string `json:"checksum" gorm:"uniqueIndex:idx_documents_user_checksum"`

	Source string `json:"source"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Text   string `json:"text"`

	// Tags is a JSON-encoded ordered []string.
	Tags datatypes.JSON `json:"tags"`

	// Embedding holds the JSON-encoded vector, nil when embedding was
	// skipped or failed.
	Embedding datatypes.JSON `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Checksum hashes raw document text into the dedup key.
func Checksum(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
