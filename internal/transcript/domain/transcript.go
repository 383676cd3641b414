package domain

import "time"

type Transcript struct {
	ID        string `json:"id" gorm:"primaryKey"`
	UserID    string `json:"user_id" gorm:"uniqueIndex:idx_transcripts_user_meeting"`
	MeetingID string `json:"meeting_id" gorm:"uniqueIndex:idx_transcripts_user_meeting"`

	Title   string `json:"title"`
	RawText string `json:"-"`

	// Filled in by the background summary worker.
	Summary     string `json:"summary,omitempty"`
	ActionItems string `json:"action_items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
