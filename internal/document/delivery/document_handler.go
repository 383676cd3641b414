package delivery

import (
	"net/http"
	"strconv"

	authdomain "amurex-backend/internal/auth/domain"
	"amurex-backend/internal/document/usecase"

	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	docUsecase *usecase.DocumentUsecase
}

func NewDocumentHandler(docUsecase *usecase.DocumentUsecase) *DocumentHandler {
	return &DocumentHandler{docUsecase: docUsecase}
}

func currentUser(c *gin.Context) *authdomain.User {
	return c.MustGet("user").(*authdomain.User)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return fallback
}

// ImportNotion pulls the user's Notion pages into storage
func (h *DocumentHandler) ImportNotion(c *gin.Context) {
	user := currentUser(c)

	count, err := h.docUsecase.ImportNotionForUser(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

// ImportGoogleDocs pulls the user's Google Docs into storage
func (h *DocumentHandler) ImportGoogleDocs(c *gin.Context) {
	user := currentUser(c)

	count, err := h.docUsecase.ImportGoogleDocsForUser(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

// Upload stores a markdown or obsidian file pushed by the client
func (h *DocumentHandler) Upload(c *gin.Context) {
	var req struct {
		Source string `json:"source"`
		Title  string `json:"title"`
		Text   string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	doc, err := h.docUsecase.UploadMarkdown(c.Request.Context(), user.ID, req.Source, req.Title, req.Text)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

// List returns a page of the user's documents
func (h *DocumentHandler) List(c *gin.Context) {
	user := currentUser(c)
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	docs, err := h.docUsecase.ListDocuments(user.ID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// Get returns one document
func (h *DocumentHandler) Get(c *gin.Context) {
	user := currentUser(c)
	doc, err := h.docUsecase.GetDocument(user.ID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"document": doc})
}

// Search ranks documents against a keyword query
func (h *DocumentHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	user := currentUser(c)
	limit := queryInt(c, "limit", 10)

	results, err := h.docUsecase.SearchKeyword(user.ID, query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// SemanticSearch ranks documents by embedding similarity
func (h *DocumentHandler) SemanticSearch(c *gin.Context) {
	var req struct {
		Query string `json:"query" binding:"required"`
		Limit int    `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	results, err := h.docUsecase.SearchSemantic(c.Request.Context(), user.ID, req.Query, req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// CronImportDocuments runs the Notion import for every connected user
func (h *DocumentHandler) CronImportDocuments(c *gin.Context) {
	results, err := h.docUsecase.ImportNotionAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}
