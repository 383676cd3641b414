package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	authdomain "amurex-backend/internal/auth/domain"
	authrepo "amurex-backend/internal/auth/repository"
	emaildomain "amurex-backend/internal/email/domain"
	emailrepo "amurex-backend/internal/email/repository"
	"amurex-backend/pkg/ai"
	gmailpkg "amurex-backend/pkg/gmail"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	// fetchLimit caps how many recent messages one import pulls
	fetchLimit = 25
	// probeTimeout bounds the token validation probe
	probeTimeout = 30 * time.Second
	// userImportTimeout bounds one user's whole import
	userImportTimeout = 2 * time.Minute
	// batchConcurrency bounds how many users import at once
	batchConcurrency = 5
)

// GmailClient is the slice of the Gmail service the importer needs
type GmailClient interface {
	CheckScopes(ctx context.Context, cohort int, accessToken, refreshToken string, onTokenRefresh gmailpkg.TokenUpdateFunc) gmailpkg.ScopeCheck
	FetchRecent(ctx context.Context, cohort int, accessToken, refreshToken string, limit int, onTokenRefresh gmailpkg.TokenUpdateFunc) ([]*emaildomain.Email, error)
}

// EmailUsecase runs the Gmail import pipeline: validate token, fetch,
// categorize, embed, store.
type EmailUsecase struct {
	userRepo    authrepo.UserRepository
	emailRepo   emailrepo.EmailRepository
	gmail       GmailClient
	categorizer *Categorizer
	embedder    *ai.Embedder
}

func NewEmailUsecase(userRepo authrepo.UserRepository, emailRepo emailrepo.EmailRepository, gmail GmailClient, categorizer *Categorizer, embedder *ai.Embedder) *EmailUsecase {
	return &EmailUsecase{
		userRepo:    userRepo,
		emailRepo:   emailRepo,
		gmail:       gmail,
		categorizer: categorizer,
		embedder:    embedder,
	}
}

// tokenUpdater persists tokens refreshed mid-call so the next run starts
// from the new access token.
func (u *EmailUsecase) tokenUpdater(user *authdomain.User) emaildomain.TokenUpdateFunc {
	return func(token *oauth2.Token) error {
		user.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			user.RefreshToken = token.RefreshToken
		}
		user.TokenExpiry = token.Expiry
		return u.userRepo.Update(user)
	}
}

// ImportForUser imports recent Gmail messages for one user and returns how
// many new rows were stored.
func (u *EmailUsecase) ImportForUser(ctx context.Context, user *authdomain.User) (int, error) {
	if !user.GmailConnected || user.RefreshToken == "" {
		return 0, fmt.Errorf("gmail is not connected")
	}

	onRefresh := u.tokenUpdater(user)

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	check := u.gmail.CheckScopes(probeCtx, user.ClientCohort, user.AccessToken, user.RefreshToken, onRefresh)
	cancel()

	switch check.Status {
	case gmailpkg.ScopeInvalid:
		// The grant is gone; stop trying until the user reconnects.
		user.GmailConnected = false
		if err := u.userRepo.Update(user); err != nil {
			log.Printf("[EmailImport] Failed to mark user %s disconnected: %v", user.ID, err)
		}
		return 0, fmt.Errorf("gmail token rejected: %s", check.Detail)
	case gmailpkg.ScopeUnknown:
		// Probe was inconclusive; the next scheduled run retries.
		return 0, fmt.Errorf("gmail token check inconclusive: %s", check.Detail)
	}

	emails, err := u.gmail.FetchRecent(ctx, user.ClientCohort, user.AccessToken, user.RefreshToken, fetchLimit, onRefresh)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch messages: %w", err)
	}

	enabled := user.EnabledCategories()
	inserted := 0

	for _, email := range emails {
		exists, err := u.emailRepo.ExistsByMessageID(user.ID, email.MessageID)
		if err != nil {
			log.Printf("[EmailImport] Existence check failed for message %s: %v", email.MessageID, err)
			continue
		}
		if exists {
			continue
		}

		email.UserID = user.ID

		if user.EmailTagging && u.categorizer != nil {
			if category := u.categorizer.Categorize(ctx, enabled, email.Sender, email.Subject, email.Body); category != "" {
				email.Category = &category
			}
			email.IsCategorized = true
		}

		if u.embedder != nil {
			if vector := u.embedder.EmbedOrNil(ctx, email.Subject+"\n"+email.Body); vector != nil {
				if encoded, err := json.Marshal(vector); err == nil {
					email.Embedding = datatypes.JSON(encoded)
				}
			}
		}

		result := u.emailRepo.Save(email)
		switch result.Status {
		case emaildomain.StatusInserted, emaildomain.StatusInsertedDegraded:
			inserted++
		case emaildomain.StatusError:
			log.Printf("[EmailImport] Failed to store message %s: %v", email.MessageID, result.Err)
		}
	}

	return inserted, nil
}

// ImportAll runs the import for every Gmail-connected user with bounded
// concurrency. One user's failure never aborts the batch; each user's
// outcome lands in the returned slice in listing order.
func (u *EmailUsecase) ImportAll(ctx context.Context) ([]emaildomain.UserImportResult, error) {
	users, err := u.userRepo.ListGmailConnected()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	results := make([]emaildomain.UserImportResult, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for i, user := range users {
		i, user := i, user
		g.Go(func() error {
			userCtx, cancel := context.WithTimeout(gctx, userImportTimeout)
			defer cancel()

			count, err := u.ImportForUser(userCtx, user)
			if err != nil {
				log.Printf("[EmailImport] Import failed for user %s: %v", user.ID, err)
				results[i] = emaildomain.UserImportResult{UserID: user.ID, Status: "error", Error: err.Error()}
				return nil
			}
			results[i] = emaildomain.UserImportResult{UserID: user.ID, Status: "success", Count: count}
			return nil
		})
	}

	// Workers report failures in-band and never return errors
	_ = g.Wait()

	return results, nil
}

// ListEmails returns a page of stored emails for one user
func (u *EmailUsecase) ListEmails(userID string, limit, offset int) ([]*emaildomain.Email, error) {
	return u.emailRepo.ListByUser(userID, limit, offset)
}
