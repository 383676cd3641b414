package dto

import authdomain "amurex-backend/internal/auth/domain"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

type ConnectCallbackRequest struct {
	Code  string `json:"code" binding:"required"`
	State string `json:"state"`
}

type PreferencesRequest struct {
	EmailTagging  *bool           `json:"email_tagging"`
	CategoryPrefs map[string]bool `json:"category_prefs"`
}

type TokenResponse struct {
	AccessToken string           `json:"access_token"`
	User        *authdomain.User `json:"user"`
}
