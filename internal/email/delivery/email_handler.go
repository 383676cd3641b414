package delivery

import (
	"net/http"
	"strconv"

	authdomain "amurex-backend/internal/auth/domain"
	"amurex-backend/internal/email/usecase"

	"github.com/gin-gonic/gin"
)

type EmailHandler struct {
	emailUsecase *usecase.EmailUsecase
}

func NewEmailHandler(emailUsecase *usecase.EmailUsecase) *EmailHandler {
	return &EmailHandler{emailUsecase: emailUsecase}
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

// Import runs the Gmail import for the authenticated user
func (h *EmailHandler) Import(c *gin.Context) {
	user := currentUser(c)

	count, err := h.emailUsecase.ImportForUser(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

// List returns a page of the user's stored emails
func (h *EmailHandler) List(c *gin.Context) {
	user := currentUser(c)
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	emails, err := h.emailUsecase.ListEmails(user.ID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"emails": emails})
}

// Search ranks stored emails against a keyword query
func (h *EmailHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	user := currentUser(c)
	limit := queryInt(c, "limit", 10)

	results, err := h.emailUsecase.SearchKeyword(user.ID, query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// SemanticSearch ranks stored emails by embedding similarity
func (h *EmailHandler) SemanticSearch(c *gin.Context) {
	var req struct {
		Query string `json:"query" binding:"required"`
		Limit int    `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	results, err := h.emailUsecase.SearchSemantic(c.Request.Context(), user.ID, req.Query, req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// CronImport runs the import for every connected user. Per-user failures
// are reported in the body, not the status code; only a failure to list
// users yields a 500.
func (h *EmailHandler) CronImport(c *gin.Context) {
	results, err := h.emailUsecase.ImportAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}
