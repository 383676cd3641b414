package repository

import (
	emaildomain "amurex-backend/internal/email/domain"
)

// EmailRepository is the persistence writer for imported emails
type EmailRepository interface {
	ExistsByMessageID(userID, messageID string) (bool, error)

	// Save stores a record exactly once. It never returns an error; all
	// failure modes are reported through the SaveResult.
	Save(email *emaildomain.Email) emaildomain.SaveResult

	ListByUser(userID string, limit, offset int) ([]*emaildomain.Email, error)
	ListWithEmbeddings(userID string) ([]*emaildomain.Email, error)
	Search(userID, pattern string, limit int) ([]*emaildomain.Email, error)
	DeleteByUser(userID string) error
}
