package repository

import (
	authdomain "amurex-backend/internal/auth/domain"
)

// UserRepository defines data access for users and OAuth client cohorts
type UserRepository interface {
	Create(user *authdomain.User) error
	FindByEmail(email string) (*authdomain.User, error)
	FindByID(id string) (*authdomain.User, error)
	Update(user *authdomain.User) error
	Delete(id string) error

	// ListGmailConnected returns every user the email cron should process.
	ListGmailConnected() ([]*authdomain.User, error)
	// ListNotionConnected returns every user the Notion cron should process.
	ListNotionConnected() ([]*authdomain.User, error)

	// CredentialsForCohort resolves an OAuth client pair from the
	// google_clients table. Satisfies gmail.CredentialStore.
	CredentialsForCohort(cohort int) (clientID, clientSecret string, err error)
}
