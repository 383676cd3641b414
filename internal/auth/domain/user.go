package domain

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID       string `json:"id" gorm:"primaryKey"`
	Email    string `json:"email" gorm:"uniqueIndex"`
	Password string `json:"-"` // Never return password in JSON
	Name     string `json:"name"`
	Provider string `json:"provider"` // "email" or "google"

	// Gmail connection. ClientCohort selects which OAuth client id/secret
	// pair in the google_clients table this user's tokens were minted
	// under; 0 means the default client from process configuration.
	GmailConnected bool      `json:"gmail_connected"`
	AccessToken    string    `json:"-"`
	RefreshToken   string    `json:"-"`
	TokenExpiry    time.Time `json:"-"`
	ClientCohort   int       `json:"-"`

	// Notion connection
	NotionConnected   bool   `json:"notion_connected"`
	NotionToken       string `json:"-"`
	NotionWorkspaceID string `json:"-"`
	NotionBotID       string `json:"-"`

	CalendarConnected bool `json:"calendar_connected"`

	// Email categorization preferences: category name -> enabled.
	// Category ordering is never derived from this map, see
	// emaildomain.Categories.
	EmailTagging  bool              `json:"email_tagging"`
	CategoryPrefs datatypes.JSONMap `json:"category_prefs" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EnabledCategories converts the stored preference map into a plain
// name -> enabled lookup.
func (u *User) EnabledCategories() map[string]bool {
	prefs := make(map[string]bool, len(u.CategoryPrefs))
	for name, v := range u.CategoryPrefs {
		enabled, ok := v.(bool)
		prefs[name] = ok && enabled
	}
	return prefs
}

// GoogleClient is one OAuth client id/secret pair. New cohorts are added as
// rows, never as code branches.
type GoogleClient struct {
	Cohort       int    `json:"cohort" gorm:"primaryKey"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"-"`
}
