package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	authdomain "amurex-backend/internal/auth/domain"
	authdto "amurex-backend/internal/auth/dto"
	"amurex-backend/internal/auth/repository"
	docrepo "amurex-backend/internal/document/repository"
	emaildomain "amurex-backend/internal/email/domain"
	emailrepo "amurex-backend/internal/email/repository"
	transcriptrepo "amurex-backend/internal/transcript/repository"
	"amurex-backend/pkg/config"
	"amurex-backend/pkg/notion"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// GoogleConnector is the slice of the Gmail service the connect flow needs
type GoogleConnector interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
}

// NotionConnector is the slice of the Notion service the connect flow needs
type NotionConnector interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*notion.OAuthResult, error)
}

// Notifier sends account lifecycle email
type Notifier interface {
	Send(ctx context.Context, to, subject, html string) error
}

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo       repository.UserRepository
	emailRepo      emailrepo.EmailRepository
	docRepo        docrepo.DocumentRepository
	transcriptRepo transcriptrepo.TranscriptRepository
	google         GoogleConnector
	notion         NotionConnector
	notifier       Notifier
	config         *config.Config
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(
	userRepo repository.UserRepository,
	emailRepo emailrepo.EmailRepository,
	docRepo docrepo.DocumentRepository,
	transcriptRepo transcriptrepo.TranscriptRepository,
	google GoogleConnector,
	notionSvc NotionConnector,
	notifier Notifier,
	cfg *config.Config,
) AuthUsecase {
	return &authUsecase{
		userRepo:       userRepo,
		emailRepo:      emailRepo,
		docRepo:        docRepo,
		transcriptRepo: transcriptRepo,
		google:         google,
		notion:         notionSvc,
		notifier:       notifier,
		config:         cfg,
	}
}

func (u *authUsecase) Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error) {
	existing, err := u.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return nil, errors.New("email already registered")
	}

	hashedPassword, err := repository.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &authdomain.User{
		Email:    req.Email,
		Password: hashedPassword,
		Name:     req.Name,
		Provider: "email",
	}

	if err := u.userRepo.Create(user); err != nil {
		return nil, err
	}

	if u.notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := u.notifier.Send(ctx, user.Email, "Welcome",
			"<p>Your account is ready. Connect Gmail or Notion to start importing.</p>"); err != nil {
			log.Printf("[Auth] Welcome email failed for %s: %v", user.Email, err)
		}
	}

	return u.generateTokens(user)
}

func (u *authUsecase) Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errors.New("invalid email or password")
	}

	if !repository.CheckPasswordHash(req.Password, user.Password) {
		return nil, errors.New("invalid email or password")
	}

	return u.generateTokens(user)
}

func (u *authUsecase) generateTokens(user *authdomain.User) (*authdto.TokenResponse, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(u.config.JWTAccessExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString([]byte(u.config.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &authdto.TokenResponse{
		AccessToken: accessToken,
		User:        user,
	}, nil
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errors.New("user not found")
	}

	return user, nil
}

func (u *authUsecase) GoogleAuthURL(userID string) string {
	return u.google.AuthURL(userID)
}

func (u *authUsecase) ConnectGoogle(ctx context.Context, userID, code string) error {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found")
	}

	token, err := u.google.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}

	user.GmailConnected = true
	user.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		user.RefreshToken = token.RefreshToken
	}
	user.TokenExpiry = token.Expiry
	// New connections always use the current default OAuth client
	user.ClientCohort = 0

	return u.userRepo.Update(user)
}

func (u *authUsecase) NotionAuthURL(userID string) string {
	return u.notion.AuthURL(userID)
}

func (u *authUsecase) ConnectNotion(ctx context.Context, userID, code string) error {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found")
	}

	result, err := u.notion.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}

	user.NotionConnected = true
	user.NotionToken = result.AccessToken
	user.NotionWorkspaceID = result.WorkspaceID
	user.NotionBotID = result.BotID

	return u.userRepo.Update(user)
}

func (u *authUsecase) UpdatePreferences(userID string, req *authdto.PreferencesRequest) (*authdomain.User, error) {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	if req.EmailTagging != nil {
		user.EmailTagging = *req.EmailTagging
	}
	if req.CategoryPrefs != nil {
		prefs := make(map[string]interface{}, len(req.CategoryPrefs))
		for _, name := range emaildomain.Categories {
			if enabled, ok := req.CategoryPrefs[name]; ok {
				prefs[name] = enabled
			}
		}
		user.CategoryPrefs = prefs
	}

	if err := u.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the user's imported data first, then the account.
// A failure partway leaves the account intact so the delete can be retried.
func (u *authUsecase) DeleteAccount(ctx context.Context, userID string) error {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found")
	}

	if err := u.emailRepo.DeleteByUser(userID); err != nil {
		return err
	}
	if err := u.docRepo.DeleteByUser(userID); err != nil {
		return err
	}
	if err := u.transcriptRepo.DeleteByUser(userID); err != nil {
		return err
	}
	if err := u.userRepo.Delete(userID); err != nil {
		return err
	}

	if u.notifier != nil {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := u.notifier.Send(notifyCtx, user.Email, "Account deleted",
			"<p>Your account and all imported data have been removed.</p>"); err != nil {
			log.Printf("[Auth] Deletion email failed for %s: %v", user.Email, err)
		}
	}

	return nil
}
