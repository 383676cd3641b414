package repository

import (
	"errors"
	"time"

	authdomain "amurex-backend/internal/auth/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of userRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) Create(user *authdomain.User) error {
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	return r.db.Create(user).Error
}

func (r *userRepository) FindByEmail(email string) (*authdomain.User, error) {
	var user authdomain.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(id string) (*authdomain.User, error) {
	var user authdomain.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(user *authdomain.User) error {
	user.UpdatedAt = time.Now()
	return r.db.Save(user).Error
}

func (r *userRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&authdomain.User{}).Error
}

func (r *userRepository) ListGmailConnected() ([]*authdomain.User, error) {
	var users []*authdomain.User
	err := r.db.Where("gmail_connected = ?", true).Order("created_at").Find(&users).Error
	return users, err
}

func (r *userRepository) ListNotionConnected() ([]*authdomain.User, error) {
	var users []*authdomain.User
	err := r.db.Where("notion_connected = ?", true).Order("created_at").Find(&users).Error
	return users, err
}

// CredentialsForCohort looks up the OAuth client pair assigned to a cohort.
// A missing row is reported as gorm.ErrRecordNotFound; the caller decides
// whether to fall back to the default client.
func (r *userRepository) CredentialsForCohort(cohort int) (string, string, error) {
	var client authdomain.GoogleClient
	if err := r.db.Where("cohort = ?", cohort).First(&client).Error; err != nil {
		return "", "", err
	}
	return client.ClientID, client.ClientSecret, nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
