package usecase

import (
	"context"

	authdomain "amurex-backend/internal/auth/domain"
	authdto "amurex-backend/internal/auth/dto"
)

// AuthUsecase defines authentication and account operations
type AuthUsecase interface {
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	ValidateToken(tokenString string) (*authdomain.User, error)

	// GoogleAuthURL starts the Gmail connect flow for an existing account
	GoogleAuthURL(userID string) string
	// ConnectGoogle finishes the flow with the callback code
	ConnectGoogle(ctx context.Context, userID, code string) error

	// NotionAuthURL starts the Notion connect flow
	NotionAuthURL(userID string) string
	// ConnectNotion finishes the flow with the callback code
	ConnectNotion(ctx context.Context, userID, code string) error

	UpdatePreferences(userID string, req *authdto.PreferencesRequest) (*authdomain.User, error)

	// DeleteAccount removes the user and everything imported for them
	DeleteAccount(ctx context.Context, userID string) error
}
