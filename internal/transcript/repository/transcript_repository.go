package repository

import (
	"errors"
	"time"

	transcriptdomain "amurex-backend/internal/transcript/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TranscriptRepository defines data access for meeting transcripts
type TranscriptRepository interface {
	Upsert(t *transcriptdomain.Transcript) error
	GetByMeetingID(userID, meetingID string) (*transcriptdomain.Transcript, error)
	SaveSummary(userID, meetingID, summary, actionItems string) error
	ListByUser(userID string, limit, offset int) ([]*transcriptdomain.Transcript, error)
	DeleteByUser(userID string) error
}

// transcriptRepository implements TranscriptRepository interface
type transcriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository creates a new instance of transcriptRepository
func NewTranscriptRepository(db *gorm.DB) TranscriptRepository {
	return &transcriptRepository{
		db: db,
	}
}

// Upsert stores a transcript keyed by (user_id, meeting_id); a re-upload
// replaces the raw text and clears any stale summary.
func (r *transcriptRepository) Upsert(t *transcriptdomain.Transcript) error {
	existing, err := r.GetByMeetingID(t.UserID, t.MeetingID)
	if err != nil {
		return err
	}

	now := time.Now()
	if existing == nil {
		t.ID = uuid.New().String()
		t.CreatedAt = now
		t.UpdatedAt = now
		return r.db.Create(t).Error
	}

	existing.Title = t.Title
	existing.RawText = t.RawText
	existing.Summary = ""
	existing.ActionItems = ""
	existing.UpdatedAt = now
	*t = *existing
	return r.db.Save(existing).Error
}

func (r *transcriptRepository) GetByMeetingID(userID, meetingID string) (*transcriptdomain.Transcript, error) {
	var t transcriptdomain.Transcript
	err := r.db.Where("user_id = ? AND meeting_id = ?", userID, meetingID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *transcriptRepository) SaveSummary(userID, meetingID, summary, actionItems string) error {
	return r.db.Model(&transcriptdomain.Transcript{}).
		Where("user_id = ? AND meeting_id = ?", userID, meetingID).
		Updates(map[string]interface{}{
			"summary":      summary,
			"action_items": actionItems,
			"updated_at":   time.Now(),
		}).Error
}

func (r *transcriptRepository) ListByUser(userID string, limit, offset int) ([]*transcriptdomain.Transcript, error) {
	if limit <= 0 {
		limit = 20
	}
	var transcripts []*transcriptdomain.Transcript
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&transcripts).Error
	return transcripts, err
}

func (r *transcriptRepository) DeleteByUser(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&transcriptdomain.Transcript{}).Error
}
