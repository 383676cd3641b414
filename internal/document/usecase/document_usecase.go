package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	authdomain "amurex-backend/internal/auth/domain"
	authrepo "amurex-backend/internal/auth/repository"
	docdomain "amurex-backend/internal/document/domain"
	docrepo "amurex-backend/internal/document/repository"
	emaildomain "amurex-backend/internal/email/domain"
	"amurex-backend/pkg/ai"
	"amurex-backend/pkg/gdocs"
	gmailpkg "amurex-backend/pkg/gmail"
	"amurex-backend/pkg/notion"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	// pageLimit caps how many pages one Notion import pulls
	pageLimit = 100
	// docLimit caps how many Google Docs one import pulls
	docLimit = 50
	// userImportTimeout bounds one user's whole import
	userImportTimeout = 3 * time.Minute
	// batchConcurrency bounds how many users import at once
	batchConcurrency = 5
)

// NotionClient is the slice of the Notion service the importer needs
type NotionClient interface {
	ListPages(ctx context.Context, accessToken string, limit int) ([]*notion.Page, error)
}

// GDocsClient is the slice of the Docs service the importer needs
type GDocsClient interface {
	ListDocs(ctx context.Context, client *http.Client, limit int) ([]*gdocs.Doc, error)
}

// GoogleClientProvider builds authenticated HTTP clients from stored tokens
type GoogleClientProvider interface {
	HTTPClient(ctx context.Context, cohort int, accessToken, refreshToken string, onTokenRefresh gmailpkg.TokenUpdateFunc) *http.Client
}

// DocumentUsecase imports documents from connected sources and uploads,
// tags them, embeds them and stores them.
type DocumentUsecase struct {
	userRepo authrepo.UserRepository
	docRepo  docrepo.DocumentRepository
	notion   NotionClient
	gdocs    GDocsClient
	google   GoogleClientProvider
	tagger   *Tagger
	embedder *ai.Embedder
}

func NewDocumentUsecase(userRepo authrepo.UserRepository, docRepo docrepo.DocumentRepository, notionClient NotionClient, gdocsClient GDocsClient, google GoogleClientProvider, tagger *Tagger, embedder *ai.Embedder) *DocumentUsecase {
	return &DocumentUsecase{
		userRepo: userRepo,
		docRepo:  docRepo,
		notion:   notionClient,
		gdocs:    gdocsClient,
		google:   google,
		tagger:   tagger,
		embedder: embedder,
	}
}

// storeDocument runs the shared tail of every import path: dedup by
// checksum, tag, embed, save. Returns true when a new row was stored.
func (u *DocumentUsecase) storeDocument(ctx context.Context, doc *docdomain.Document) bool {
	if strings.TrimSpace(doc.Text) == "" {
		return false
	}

	doc.Checksum = docdomain.Checksum(doc.Text)

	exists, err := u.docRepo.ExistsByChecksum(doc.UserID, doc.Checksum)
	if err != nil {
		log.Printf("[DocImport] Existence check failed for %q: %v", doc.Title, err)
		return false
	}
	if exists {
		return false
	}

	if u.tagger != nil {
		if tags := u.tagger.Tags(ctx, doc.Title, doc.Text); len(tags) > 0 {
			if encoded, err := json.Marshal(tags); err == nil {
				doc.Tags = datatypes.JSON(encoded)
			}
		}
	}

	if u.embedder != nil {
		if vector := u.embedder.EmbedOrNil(ctx, doc.Title+"\n"+doc.Text); vector != nil {
			if encoded, err := json.Marshal(vector); err == nil {
				doc.Embedding = datatypes.JSON(encoded)
			}
		}
	}

	result := u.docRepo.Save(doc)
	switch result.Status {
	case emaildomain.StatusInserted, emaildomain.StatusInsertedDegraded:
		return true
	case emaildomain.StatusError:
		log.Printf("[DocImport] Failed to store %q: %v", doc.Title, result.Err)
	}
	return false
}

// ImportNotionForUser pulls the user's Notion pages and stores the new ones
func (u *DocumentUsecase) ImportNotionForUser(ctx context.Context, user *authdomain.User) (int, error) {
	if !user.NotionConnected || user.NotionToken == "" {
		return 0, fmt.Errorf("notion is not connected")
	}

	pages, err := u.notion.ListPages(ctx, user.NotionToken, pageLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to list notion pages: %w", err)
	}

	inserted := 0
	for _, page := range pages {
		doc := &docdomain.Document{
			UserID: user.ID,
			Source: docdomain.SourceNotion,
			Title:  page.Title,
			URL:    page.URL,
			Text:   page.Text,
		}
		if u.storeDocument(ctx, doc) {
			inserted++
		}
	}
	return inserted, nil
}

// ImportGoogleDocsForUser pulls the user's Google Docs and stores the new ones
func (u *DocumentUsecase) ImportGoogleDocsForUser(ctx context.Context, user *authdomain.User) (int, error) {
	if !user.GmailConnected || user.RefreshToken == "" {
		return 0, fmt.Errorf("google account is not connected")
	}

	onRefresh := func(token *oauth2.Token) error {
		user.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			user.RefreshToken = token.RefreshToken
		}
		user.TokenExpiry = token.Expiry
		return u.userRepo.Update(user)
	}

	client := u.google.HTTPClient(ctx, user.ClientCohort, user.AccessToken, user.RefreshToken, onRefresh)
	docs, err := u.gdocs.ListDocs(ctx, client, docLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to list google docs: %w", err)
	}

	inserted := 0
	for _, d := range docs {
		doc := &docdomain.Document{
			UserID: user.ID,
			Source: docdomain.SourceGoogleDocs,
			Title:  d.Title,
			URL:    d.URL,
			Text:   d.Text,
		}
		if u.storeDocument(ctx, doc) {
			inserted++
		}
	}
	return inserted, nil
}

// UploadMarkdown stores a markdown or obsidian file pushed by the client
func (u *DocumentUsecase) UploadMarkdown(ctx context.Context, userID, source, title, text string) (*docdomain.Document, error) {
	if source != docdomain.SourceMarkdown && source != docdomain.SourceObsidian {
		source = docdomain.SourceMarkdown
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("document text is empty")
	}
	if title == "" {
		title = "Untitled"
	}

	doc := &docdomain.Document{
		UserID: userID,
		Source: source,
		Title:  title,
		Text:   text,
	}
	if !u.storeDocument(ctx, doc) {
		existing, err := u.docRepo.ExistsByChecksum(userID, docdomain.Checksum(text))
		if err == nil && existing {
			return nil, fmt.Errorf("document already exists")
		}
		return nil, fmt.Errorf("failed to store document")
	}
	return doc, nil
}

// ImportNotionAll runs the Notion import for every connected user with
// bounded concurrency; per-user outcomes are reported in-band.
func (u *DocumentUsecase) ImportNotionAll(ctx context.Context) ([]emaildomain.UserImportResult, error) {
	users, err := u.userRepo.ListNotionConnected()
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

			count, err := u.ImportNotionForUser(userCtx, user)
			if err != nil {
				log.Printf("[DocImport] Notion import failed for user %s: %v", user.ID, err)
				results[i] = emaildomain.UserImportResult{UserID: user.ID, Status: "error", Error: err.Error()}
				return nil
			}
			results[i] = emaildomain.UserImportResult{UserID: user.ID, Status: "success", Count: count}
			return nil
		})
	}

	_ = g.Wait()

	return results, nil
}

// ListDocuments returns a page of stored documents for one user
func (u *DocumentUsecase) ListDocuments(userID string, limit, offset int) ([]*docdomain.Document, error) {
	return u.docRepo.ListByUser(userID, limit, offset)
}

// GetDocument returns one stored document
func (u *DocumentUsecase) GetDocument(userID, id string) (*docdomain.Document, error) {
	return u.docRepo.GetByID(userID, id)
}
