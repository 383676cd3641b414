package repository

import (
	"errors"
	"log"
	"strings"
	"time"

	emaildomain "amurex-backend/internal/email/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// schemaDriftMarkers is the explicit allow-list of error substrings that
// indicate the optional categorization columns are missing from the target
// database (older deployments predate them). A match triggers exactly one
// retry with those columns stripped; no other error class is retried.
var schemaDriftMarkers = []string{
	`column "category"`,
	`column "is_categorized"`,
	"category of relation",
	"is_categorized of relation",
}

// IsSchemaDriftError reports whether an insert failure should be retried
// with the optional columns omitted.
func IsSchemaDriftError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "does not exist") && !strings.Contains(msg, "undefined column") {
		return false
	}
	for _, marker := range schemaDriftMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// emailRepository implements EmailRepository interface
type emailRepository struct {
	db *gorm.DB
}

// NewEmailRepository creates a new instance of emailRepository
func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &emailRepository{
		db: db,
	}
}

func (r *emailRepository) ExistsByMessageID(userID, messageID string) (bool, error) {
	var email emaildomain.Email
	err := r.db.Select("id").Where("user_id = ? AND message_id = ?", userID, messageID).First(&email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Save inserts an email exactly once, keyed by (user_id, message_id).
// Re-importing an existing message is a no-op reported as StatusExists.
func (r *emailRepository) Save(email *emaildomain.Email) emaildomain.SaveResult {
	exists, err := r.ExistsByMessageID(email.UserID, email.MessageID)
	if err != nil {
		log.Printf("[EmailRepo] Existence check failed for message %s: %v", email.MessageID, err)
		return emaildomain.SaveResult{Status: emaildomain.StatusError, Err: err}
	}
	if exists {
		return emaildomain.SaveResult{Status: emaildomain.StatusExists}
	}

	if email.ID == "" {
		email.ID = uuid.New().String()
	}
	now := time.Now()
	email.CreatedAt = now
	email.UpdatedAt = now

	return persistNew(email,
		func(e *emaildomain.Email) error { return r.db.Create(e).Error },
		func(e *emaildomain.Email) error {
			return r.db.Omit("category", "is_categorized").Create(e).Error
		})
}

// persistNew runs the insert, retrying exactly once with the categorization
// fields stripped when the failure matches the drift allow-list. Older
// deployments are missing those columns; every other failure is terminal.
func persistNew(email *emaildomain.Email, insert, insertDegraded func(*emaildomain.Email) error) emaildomain.SaveResult {
	err := insert(email)
	if err == nil {
		return emaildomain.SaveResult{Status: emaildomain.StatusInserted}
	}

	if !IsSchemaDriftError(err) {
		log.Printf("[EmailRepo] Insert failed for message %s (subject %d bytes, body %d bytes): %v",
			email.MessageID, len(email.Subject), len(email.Body), err)
		return emaildomain.SaveResult{Status: emaildomain.StatusError, Err: err}
	}

	log.Printf("[EmailRepo] Schema drift inserting message %s, retrying without category fields: %v", email.MessageID, err)
	degraded := *email
	degraded.Category = nil
	degraded.IsCategorized = false
	if err := insertDegraded(&degraded); err != nil {
		log.Printf("[EmailRepo] Degraded insert failed for message %s: %v", email.MessageID, err)
		return emaildomain.SaveResult{Status: emaildomain.StatusError, Err: err}
	}
	log.Printf("[EmailRepo] Degraded insert succeeded for message %s", email.MessageID)
	return emaildomain.SaveResult{Status: emaildomain.StatusInsertedDegraded}
}

func (r *emailRepository) ListByUser(userID string, limit, offset int) ([]*emaildomain.Email, error) {
	if limit <= 0 {
		limit = 20
	}
	var emails []*emaildomain.Email
	err := r.db.Where("user_id = ?", userID).
		Order("received_at DESC").
		Limit(limit).Offset(offset).
		Find(&emails).Error
	return emails, err
}

func (r *emailRepository) ListWithEmbeddings(userID string) ([]*emaildomain.Email, error) {
	var emails []*emaildomain.Email
	err := r.db.Where("user_id = ? AND embedding IS NOT NULL", userID).Find(&emails).Error
	return emails, err
}

func (r *emailRepository) Search(userID, pattern string, limit int) ([]*emaildomain.Email, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + pattern + "%"
	var emails []*emaildomain.Email
	err := r.db.Where("user_id = ? AND (subject ILIKE ? OR sender ILIKE ? OR snippet ILIKE ?)", userID, like, like, like).
		Order("received_at DESC").
		Limit(limit).
		Find(&emails).Error
	return emails, err
}

func (r *emailRepository) DeleteByUser(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&emaildomain.Email{}).Error
}
