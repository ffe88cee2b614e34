package httpapi

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"chatline-platform/internal/message"
	"chatline-platform/internal/rbac"
	"chatline-platform/internal/storage"
	"chatline-platform/pkg/logger"
)

// requireParticipant verifies the caller sits on either side of the session.
// Admins pass unconditionally.
func (h Handlers) requireParticipant(c *gin.Context, sessionID, userID, role string) bool {
	if rbac.IsAdmin(role) {
		return true
	}
	ok, err := h.Sessions.IsParticipant(c.Request.Context(), sessionID, userID)
	if err != nil {
		abortWithErr(c, err)
		return false
	}
	if !ok {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not a participant of this session"})
		return false
	}
	return true
}

// FetchMessages returns a session's messages in order and marks those
// addressed to the caller as read.
func (h Handlers) FetchMessages(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}
	sessionID := c.Param("session_id")
	if !h.requireParticipant(c, sessionID, userID, role) {
		return
	}

	msgs, err := h.Messages.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		abortWithErr(c, err)
		return
	}
	if err := h.Messages.MarkRead(c.Request.Context(), sessionID, userID); err != nil {
		// Read receipts are best-effort.
		logger.FromGin(c).Warn("mark read failed", "session_id", sessionID, "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

const defaultMaxVoiceBytes = 15 << 20

// SendVoice stores an uploaded voice note, persists the message, and pushes
// it to the session room over the socket. Only audio/* uploads are accepted.
func (h Handlers) SendVoice(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	sessionID := c.PostForm("session_id")
	receiverID := c.PostForm("receiver_id")
	duration, _ := strconv.Atoi(c.PostForm("duration"))
	if sessionID == "" || receiverID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "session_id and receiver_id required"})
		return
	}
	if !h.requireParticipant(c, sessionID, userID, role) {
		return
	}

	file, err := c.FormFile("voice")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "voice file required"})
		return
	}

	maxBytes := h.MaxVoiceUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxVoiceBytes
	}
	if file.Size > maxBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "voice file too large"})
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "audio/") {
		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{"error": "audio uploads only"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable voice file"})
		return
	}
	defer src.Close()

	key := storage.VoiceKey(filepath.Ext(file.Filename))
	url, err := h.Uploader.Upload(c.Request.Context(), key, contentType, src)
	if err != nil {
		logger.FromGin(c).Error("voice upload failed", "error", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "voice upload failed"})
		return
	}

	m, err := h.Messages.CreateVoice(c.Request.Context(), message.CreateVoiceRequest{
		SessionID:       sessionID,
		SenderID:        userID,
		ReceiverID:      receiverID,
		VoiceURL:        url,
		DurationSeconds: duration,
	})
	if err != nil {
		abortWithErr(c, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordVoiceUpload()
		h.Metrics.RecordMessagePersisted(string(m.Type))
	}
	if h.Gateway != nil {
		h.Gateway.BroadcastMessage(m)
	}
	c.JSON(http.StatusCreated, gin.H{"message": m})
}
