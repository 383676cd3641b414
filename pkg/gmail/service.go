package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	emaildomain "amurex-backend/internal/email/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// TokenUpdateFunc is a callback function that handles token updates
type TokenUpdateFunc = emaildomain.TokenUpdateFunc

// Scopes requested when a user connects their Google account
var Scopes = []string{
	gmail.GmailReadonlyScope,
	gmail.GmailModifyScope,
	gmail.GmailLabelsScope,
	"https://www.googleapis.com/auth/drive.readonly",
}

// CredentialStore resolves the OAuth client registered for a user cohort.
// Users connected through different app versions carry different cohort
// numbers and must be refreshed with the client that issued their tokens.
type CredentialStore interface {
	CredentialsForCohort(cohort int) (clientID, clientSecret string, err error)
}

// ScopeStatus is the outcome of a token probe
type ScopeStatus string

const (
	// ScopeValid means the token works and covers the scopes we probe
	ScopeValid ScopeStatus = "valid"
	// ScopeInvalid means Google rejected the token or its grants
	ScopeInvalid ScopeStatus = "invalid"
	// ScopeUnknown means the probe failed for reasons unrelated to auth
	// (network, rate limit) and nothing should be concluded from it
	ScopeUnknown ScopeStatus = "unknown"
)

// ScopeCheck is the result of CheckScopes
type ScopeCheck struct {
	Status ScopeStatus
	Detail string
}

// authFailureMarkers is the allow-list of substrings that mark an error as
// an auth failure rather than a transient fault. Anything not matching is
// reported as unknown, never invalid.
var authFailureMarkers = []string{
	"insufficient permission",
	"invalid_grant",
	"invalid credentials",
	"unauthorized",
	"access denied",
	"forbidden",
}

type Service struct {
	clientID     string
	clientSecret string
	redirectURI  string
	store        CredentialStore
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[Gmail] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

// NewService creates a Gmail service. clientID and clientSecret are the
// default OAuth client; store resolves per-cohort overrides.
func NewService(clientID, clientSecret, redirectURI string, store CredentialStore) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		store:        store,
	}
}

// oauthConfigForCohort resolves the OAuth client for a user's cohort,
// falling back to the default client when the cohort has no row.
func (s *Service) oauthConfigForCohort(cohort int) *oauth2.Config {
	clientID := s.clientID
	clientSecret := s.clientSecret

	if s.store != nil && cohort > 0 {
		id, secret, err := s.store.CredentialsForCohort(cohort)
		if err != nil {
			log.Printf("[Gmail] Credential lookup failed for cohort %d, using default client: %v", cohort, err)
		} else if id != "" {
			clientID = id
			clientSecret = secret
		}
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  s.redirectURI,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

// AuthURL returns the consent page URL for the OAuth flow
func (s *Service) AuthURL(state string) string {
	config := s.oauthConfigForCohort(0)
	return config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// ExchangeCode exchanges an authorization code for tokens
func (s *Service) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	config := s.oauthConfigForCohort(0)
	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange authorization code: %v", err)
	}
	return token, nil
}

// HTTPClient returns an authenticated HTTP client for the user's tokens,
// refreshing through the cohort's OAuth client when needed.
func (s *Service) HTTPClient(ctx context.Context, cohort int, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) *http.Client {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := s.oauthConfigForCohort(cohort)
	tokenSource := config.TokenSource(ctx, token)

	// Wrap token source to detect refreshes
	wrappedSource := &notifyTokenSource{
		src:      tokenSource,
		current:  token,
		callback: onTokenRefresh,
	}

	return oauth2.NewClient(ctx, wrappedSource)
}

// GetGmailService creates a Gmail API client with user's access token
func (s *Service) GetGmailService(ctx context.Context, cohort int, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (*gmail.Service, error) {
	client := s.HTTPClient(ctx, cohort, accessToken, refreshToken, onTokenRefresh)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}

	return srv, nil
}

// CheckScopes probes the user's token with cheap read calls and reports a
// tri-state result. It never returns an error; callers decide what to do
// with each status.
func (s *Service) CheckScopes(ctx context.Context, cohort int, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) ScopeCheck {
	srv, err := s.GetGmailService(ctx, cohort, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return ScopeCheck{Status: ScopeUnknown, Detail: err.Error()}
	}

	labelsResp, err := srv.Users.Labels.List("me").Do()
	if err != nil {
		return classifyScopeError(err)
	}

	// A second, deeper probe: reading an individual label (or a message
	// when the mailbox has none) exercises the same grant the importer
	// needs for message bodies.
	if len(labelsResp.Labels) > 0 {
		if _, err := srv.Users.Labels.Get("me", labelsResp.Labels[0].Id).Do(); err != nil {
			return classifyScopeError(err)
		}
	} else {
		if _, err := srv.Users.Messages.List("me").MaxResults(1).Do(); err != nil {
			return classifyScopeError(err)
		}
	}

	return ScopeCheck{Status: ScopeValid}
}

// classifyScopeError maps a probe failure to a ScopeStatus. Only HTTP
// 401/403 or an allow-listed auth substring mean the token is bad; every
// other failure is unknown.
func classifyScopeError(err error) ScopeCheck {
	if gErr, ok := err.(*googleapi.Error); ok {
		if gErr.Code == http.StatusUnauthorized || gErr.Code == http.StatusForbidden {
			return ScopeCheck{Status: ScopeInvalid, Detail: gErr.Message}
		}
		return ScopeCheck{Status: ScopeUnknown, Detail: gErr.Message}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range authFailureMarkers {
		if strings.Contains(msg, marker) {
			return ScopeCheck{Status: ScopeInvalid, Detail: err.Error()}
		}
	}
	return ScopeCheck{Status: ScopeUnknown, Detail: err.Error()}
}

// FetchRecent retrieves the most recent inbox messages as domain emails.
// Individual message fetch failures are skipped, not fatal.
func (s *Service) FetchRecent(ctx context.Context, cohort int, accessToken, refreshToken string, limit int, onTokenRefresh TokenUpdateFunc) ([]*emaildomain.Email, error) {
	srv, err := s.GetGmailService(ctx, cohort, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	user := "me"
	maxResults := int64(limit)
	if maxResults <= 0 {
		maxResults = 20
	}
	if maxResults > 500 {
		maxResults = 500
	}

	listResp, err := srv.Users.Messages.List(user).
		LabelIds("INBOX").
		MaxResults(maxResults).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages: %v", err)
	}

	type emailResult struct {
		email *emaildomain.Email
		err   error
	}

	emailChan := make(chan emailResult, len(listResp.Messages))

	// Fetch emails in parallel (with reasonable concurrency limit)
	semaphore := make(chan struct{}, 10)

	for _, msg := range listResp.Messages {
		go func(msgID string) {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			fullMsg, err := srv.Users.Messages.Get(user, msgID).Format("full").Do()
			if err != nil {
				emailChan <- emailResult{nil, err}
				return
			}

			emailChan <- emailResult{convertGmailMessage(fullMsg), nil}
		}(msg.Id)
	}

	emails := make([]*emaildomain.Email, 0, len(listResp.Messages))
	for i := 0; i < len(listResp.Messages); i++ {
		result := <-emailChan
		if result.err != nil {
			log.Printf("[Gmail] Skipping unfetchable message: %v", result.err)
			continue
		}
		if result.email != nil {
			emails = append(emails, result.email)
		}
	}

	// Parallel fetching returns emails in random order
	sort.Slice(emails, func(i, j int) bool {
		return emails[i].ReceivedAt.After(emails[j].ReceivedAt)
	})

	return emails, nil
}

// Helper functions

func convertGmailMessage(msg *gmail.Message) *emaildomain.Email {
	body := getEmailBody(msg.Payload)

	snippet := msg.Snippet
	if snippet == "" {
		snippet = body
		// Collapse whitespace for preview use
		snippet = strings.Join(strings.Fields(snippet), " ")
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
	}

	return &emaildomain.Email{
		MessageID:  msg.Id,
		ThreadID:   msg.ThreadId,
		Sender:     getHeader(msg.Payload.Headers, "From"),
		Subject:    getHeader(msg.Payload.Headers, "Subject"),
		Snippet:    snippet,
		Body:       body,
		ReceivedAt: time.Unix(msg.InternalDate/1000, 0),
		IsRead:     !hasLabel(msg.LabelIds, "UNREAD"),
	}
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if header.Name == name {
			return header.Value
		}
	}
	return ""
}

func getEmailBody(payload *gmail.MessagePart) string {
	// If the payload itself is the body
	if payload.Body != nil && payload.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err == nil {
			if payload.MimeType == "text/html" {
				return stripHTML(string(data))
			}
			return string(data)
		}
	}

	var htmlBody string
	var plainBody string

	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.MimeType == "text/html" {
				if part.Body != nil && part.Body.Data != "" {
					data, err := base64.URLEncoding.DecodeString(part.Body.Data)
					if err == nil {
						htmlBody = string(data)
					}
				}
			} else if part.MimeType == "text/plain" {
				if part.Body != nil && part.Body.Data != "" {
					data, err := base64.URLEncoding.DecodeString(part.Body.Data)
					if err == nil {
						plainBody = string(data)
					}
				}
			}

			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}

	findBody(payload.Parts)

	if plainBody != "" {
		return plainBody
	}
	return stripHTML(htmlBody)
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	return strings.Join(strings.Fields(s), " ")
}

func hasLabel(labels []string, labelID string) bool {
	for _, label := range labels {
		if label == labelID {
			return true
		}
	}
	return false
}
