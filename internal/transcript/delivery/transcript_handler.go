package delivery

import (
	"net/http"
	"strconv"

	authdomain "amurex-backend/internal/auth/domain"
	"amurex-backend/internal/transcript/usecase"

	"github.com/gin-gonic/gin"
)

type TranscriptHandler struct {
	transcriptUsecase *usecase.TranscriptUsecase
}

func NewTranscriptHandler(transcriptUsecase *usecase.TranscriptUsecase) *TranscriptHandler {
	return &TranscriptHandler{transcriptUsecase: transcriptUsecase}
}

func currentUser(c *gin.Context) *authdomain.User {
	return c.MustGet("user").(*authdomain.User)
}

// Upload stores a meeting transcript and queues it for summarization
func (h *TranscriptHandler) Upload(c *gin.Context) {
	var req struct {
		MeetingID string `json:"meeting_id" binding:"required"`
		Title     string `json:"title"`
		Text      string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	t, err := h.transcriptUsecase.Upload(user.ID, req.MeetingID, req.Title, req.Text)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"transcript": t})
}

// Get returns one transcript, with its summary once the worker has run
func (h *TranscriptHandler) Get(c *gin.Context) {
	user := currentUser(c)
	t, err := h.transcriptUsecase.Get(user.ID, c.Param("meetingId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "transcript not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transcript": t})
}

// List returns a page of the user's transcripts
func (h *TranscriptHandler) List(c *gin.Context) {
	user := currentUser(c)

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			offset = n
		}
	}

	transcripts, err := h.transcriptUsecase.List(user.ID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transcripts": transcripts})
}
