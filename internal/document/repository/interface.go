package repository

import (
	docdomain "amurex-backend/internal/document/domain"
	emaildomain "amurex-backend/internal/email/domain"
)

// DocumentRepository is the persistence writer for imported documents
type DocumentRepository interface {
	ExistsByChecksum(userID, checksum string) (bool, error)

	// Save stores a record exactly once, keyed by content checksum.
	Save(doc *docdomain.Document) emaildomain.SaveResult

	GetByID(userID, id string) (*docdomain.Document, error)
	ListByUser(userID string, limit, offset int) ([]*docdomain.Document, error)
	ListWithEmbeddings(userID string) ([]*docdomain.Document, error)
	Search(userID, pattern string, limit int) ([]*docdomain.Document, error)
	DeleteByUser(userID string) error
}
