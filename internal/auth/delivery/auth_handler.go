package delivery

import (
	"net/http"

	authdomain "amurex-backend/internal/auth/domain"
	authdto "amurex-backend/internal/auth/dto"
	"amurex-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authUsecase usecase.AuthUsecase
}

func NewAuthHandler(authUsecase usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{authUsecase: authUsecase}
}

// currentUser pulls the authenticated user set by AuthMiddleware
func currentUser(c *gin.Context) *authdomain.User {
	return c.MustGet("user").(*authdomain.User)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req authdto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.authUsecase.Register(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req authdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.authUsecase.Login(&req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": currentUser(c)})
}

// GoogleConnectURL returns the consent URL to start the Gmail connect flow
func (h *AuthHandler) GoogleConnectURL(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{"url": h.authUsecase.GoogleAuthURL(user.ID)})
}

// GoogleConnectCallback finishes the Gmail connect flow
func (h *AuthHandler) GoogleConnectCallback(c *gin.Context) {
	var req authdto.ConnectCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	if err := h.authUsecase.ConnectGoogle(c.Request.Context(), user.ID, req.Code); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// NotionConnectURL returns the consent URL to start the Notion connect flow
func (h *AuthHandler) NotionConnectURL(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{"url": h.authUsecase.NotionAuthURL(user.ID)})
}

// NotionConnectCallback finishes the Notion connect flow
func (h *AuthHandler) NotionConnectCallback(c *gin.Context) {
	var req authdto.ConnectCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	if err := h.authUsecase.ConnectNotion(c.Request.Context(), user.ID, req.Code); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdatePreferences updates email tagging settings
func (h *AuthHandler) UpdatePreferences(c *gin.Context) {
	var req authdto.PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	updated, err := h.authUsecase.UpdatePreferences(user.ID, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": updated})
}

// DeleteAccount removes the account and everything imported for it
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	user := currentUser(c)
	if err := h.authUsecase.DeleteAccount(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
