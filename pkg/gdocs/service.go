package gdocs

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Doc is a Google Doc flattened to plain text
type Doc struct {
	ID    string
	Title string
	URL   string
	Text  string
}

// Service retrieves Google Docs through an already-authenticated client
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// ListDocs lists the user's Google Docs via Drive and reads each body via
// the Docs API. Unreadable documents are skipped.
func (s *Service) ListDocs(ctx context.Context, client *http.Client, limit int) ([]*Doc, error) {
	driveSrv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive service: %v", err)
	}
	docsSrv, err := docs.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Docs service: %v", err)
	}

	if limit <= 0 {
		limit = 50
	}

	fileList, err := driveSrv.Files.List().
		Q("mimeType = 'application/vnd.google-apps.document' and trashed = false").
		OrderBy("modifiedTime desc").
		PageSize(int64(limit)).
		Fields("files(id, name, webViewLink)").
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list documents: %v", err)
	}

	results := make([]*Doc, 0, len(fileList.Files))
	for _, file := range fileList.Files {
		doc, err := docsSrv.Documents.Get(file.Id).Do()
		if err != nil {
			log.Printf("[GDocs] Skipping unreadable document %s: %v", file.Id, err)
			continue
		}

		results = append(results, &Doc{
			ID:    file.Id,
			Title: file.Name,
			URL:   file.WebViewLink,
			Text:  documentText(doc),
		})
	}

	return results, nil
}

// documentText walks the document body and concatenates paragraph text
func documentText(doc *docs.Document) string {
	if doc.Body == nil {
		return ""
	}

	var sb strings.Builder
	for _, elem := range doc.Body.Content {
		writeStructuralElement(&sb, elem)
	}
	return strings.TrimSpace(sb.String())
}

func writeStructuralElement(sb *strings.Builder, elem *docs.StructuralElement) {
	if elem.Paragraph != nil {
		for _, pe := range elem.Paragraph.Elements {
			if pe.TextRun != nil {
				sb.WriteString(pe.TextRun.Content)
			}
		}
	}
	if elem.Table != nil {
		for _, row := range elem.Table.TableRows {
			for _, cell := range row.TableCells {
				for _, cellElem := range cell.Content {
					writeStructuralElement(sb, cellElem)
				}
			}
		}
	}
}
