package notion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jomei/notionapi"
)

const tokenURL = "https://api.notion.com/v1/oauth/token"

// Service handles the Notion OAuth flow and page retrieval
type Service struct {
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client
}

// OAuthResult carries what we persist after a successful token exchange
type OAuthResult struct {
	AccessToken   string
	WorkspaceID   string
	WorkspaceName string
	BotID         string
}

// Page is a Notion page flattened to plain text
type Page struct {
	ID    string
	Title string
	URL   string
	Text  string
}

func NewService(clientID, clientSecret, redirectURI string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthURL returns the Notion consent page URL
func (s *Service) AuthURL(state string) string {
	return fmt.Sprintf("https://api.notion.com/v1/oauth/authorize?client_id=%s&response_type=code&owner=user&redirect_uri=%s&state=%s",
		s.clientID, s.redirectURI, state)
}

// ExchangeCode exchanges an authorization code for a workspace token.
// Notion uses HTTP basic auth with the client credentials rather than the
// standard OAuth token endpoint parameters.
func (s *Service) ExchangeCode(ctx context.Context, code string) (*OAuthResult, error) {
	payload, err := json.Marshal(map[string]string{
		"grant_type":   "authorization_code",
		"code":         code,
		"redirect_uri": s.redirectURI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(s.clientID + ":" + s.clientSecret))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		AccessToken   string `json:"access_token"`
		WorkspaceID   string `json:"workspace_id"`
		WorkspaceName string `json:"workspace_name"`
		BotID         string `json:"bot_id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	return &OAuthResult{
		AccessToken:   parsed.AccessToken,
		WorkspaceID:   parsed.WorkspaceID,
		WorkspaceName: parsed.WorkspaceName,
		BotID:         parsed.BotID,
	}, nil
}

// ListPages returns the pages the integration can see, flattened to text.
// Pages whose blocks cannot be read are skipped.
func (s *Service) ListPages(ctx context.Context, accessToken string, limit int) ([]*Page, error) {
	client := notionapi.NewClient(notionapi.Token(accessToken))

	if limit <= 0 {
		limit = 100
	}

	searchResp, err := client.Search.Do(ctx, &notionapi.SearchRequest{
		Filter: notionapi.SearchFilter{
			Value:    "page",
			Property: "object",
		},
		PageSize: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("notion search failed: %w", err)
	}

	pages := make([]*Page, 0, len(searchResp.Results))
	for _, result := range searchResp.Results {
		page, ok := result.(*notionapi.Page)
		if !ok {
			continue
		}

		text, err := s.pageText(ctx, client, page.ID)
		if err != nil {
			log.Printf("[Notion] Skipping unreadable page %s: %v", page.ID, err)
			continue
		}

		pages = append(pages, &Page{
			ID:    page.ID.String(),
			Title: pageTitle(page),
			URL:   page.URL,
			Text:  text,
		})
	}

	return pages, nil
}

// pageText walks the page's block children and concatenates their rich text
func (s *Service) pageText(ctx context.Context, client *notionapi.Client, pageID notionapi.ObjectID) (string, error) {
	var sb strings.Builder
	cursor := notionapi.Cursor("")

	for {
		resp, err := client.Block.GetChildren(ctx, notionapi.BlockID(pageID), &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    100,
		})
		if err != nil {
			return "", err
		}

		for _, block := range resp.Results {
			if text := blockText(block); text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		}

		if !resp.HasMore {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}

	return strings.TrimSpace(sb.String()), nil
}

func blockText(block notionapi.Block) string {
	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		return richText(b.Paragraph.RichText)
	case *notionapi.Heading1Block:
		return richText(b.Heading1.RichText)
	case *notionapi.Heading2Block:
		return richText(b.Heading2.RichText)
	case *notionapi.Heading3Block:
		return richText(b.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		return richText(b.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		return richText(b.NumberedListItem.RichText)
	case *notionapi.ToDoBlock:
		return richText(b.ToDo.RichText)
	case *notionapi.QuoteBlock:
		return richText(b.Quote.RichText)
	case *notionapi.CalloutBlock:
		return richText(b.Callout.RichText)
	case *notionapi.CodeBlock:
		return richText(b.Code.RichText)
	default:
		return ""
	}
}

func richText(parts []notionapi.RichText) string {
	var sb strings.Builder
	for _, part := range parts {
		sb.WriteString(part.PlainText)
	}
	return sb.String()
}

func pageTitle(page *notionapi.Page) string {
	for _, prop := range page.Properties {
		if titleProp, ok := prop.(*notionapi.TitleProperty); ok {
			return richText(titleProp.Title)
		}
	}
	return "Untitled"
}
