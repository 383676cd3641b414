package repository

import (
	"errors"
	"log"
	"time"

	docdomain "amurex-backend/internal/document/domain"
	emaildomain "amurex-backend/internal/email/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// documentRepository implements DocumentRepository interface
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new instance of documentRepository
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{
		db: db,
	}
}

func (r *documentRepository) ExistsByChecksum(userID, checksum string) (bool, error) {
	var doc docdomain.Document
	err := r.db.Select("id").Where("user_id = ? AND checksum = ?", userID, checksum).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Save inserts a document exactly once, keyed by content checksum.
// Identical content under a different URL is reported as StatusExists.
func (r *documentRepository) Save(doc *docdomain.Document) emaildomain.SaveResult {
	exists, err := r.ExistsByChecksum(doc.UserID, doc.Checksum)
	if err != nil {
		log.Printf("[DocumentRepo] Existence check failed for checksum %s: %v", doc.Checksum, err)
		return emaildomain.SaveResult{Status: emaildomain.StatusError, Err: err}
	}
	if exists {
		return emaildomain.SaveResult{Status: emaildomain.StatusExists}
	}

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if err := r.db.Create(doc).Error; err != nil {
		log.Printf("[DocumentRepo] Insert failed for %q (text %d bytes): %v", doc.Title, len(doc.Text), err)
		return emaildomain.SaveResult{Status: emaildomain.StatusError, Err: err}
	}
	return emaildomain.SaveResult{Status: emaildomain.StatusInserted}
}

func (r *documentRepository) GetByID(userID, id string) (*docdomain.Document, error) {
	var doc docdomain.Document
	err := r.db.Where("user_id = ? AND id = ?", userID, id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) ListByUser(userID string, limit, offset int) ([]*docdomain.Document, error) {
	if limit <= 0 {
		limit = 20
	}
	var docs []*docdomain.Document
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&docs).Error
	return docs, err
}

func (r *documentRepository) ListWithEmbeddings(userID string) ([]*docdomain.Document, error) {
	var docs []*docdomain.Document
	err := r.db.Where("user_id = ? AND embedding IS NOT NULL", userID).Find(&docs).Error
	return docs, err
}

func (r *documentRepository) Search(userID, pattern string, limit int) ([]*docdomain.Document, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + pattern + "%"
	var docs []*docdomain.Document
	err := r.db.Where("user_id = ? AND (title ILIKE ? OR text ILIKE ?)", userID, like, like).
		Order("created_at DESC").
		Limit(limit).
		Find(&docs).Error
	return docs, err
}

func (r *documentRepository) DeleteByUser(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&docdomain.Document{}).Error
}
