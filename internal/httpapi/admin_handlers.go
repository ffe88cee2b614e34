package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatline-platform/internal/session"
	"chatline-platform/internal/withdraw"
	"chatline-platform/pkg/logger"
)

// auditSessionDecision records the admin decision trail. Best-effort: a
// failed audit write is logged, never surfaced.
func (h Handlers) auditSessionDecision(c *gin.Context, actorID, actorRole, sessionID, decision string) {
	if h.Audit == nil {
		return
	}
	err := h.Audit.LogSessionDecision(c.Request.Context(), actorID, actorRole, c.ClientIP(), sessionID, decision, "")
	if err != nil {
		logger.FromGin(c).Warn("audit write failed", "session_id", sessionID, "error", err)
	}
}

func (h Handlers) auditWithdrawDecision(c *gin.Context, actorID, actorRole, withdrawID, decision string) {
	if h.Audit == nil {
		return
	}
	err := h.Audit.LogWithdrawDecision(c.Request.Context(), actorID, actorRole, c.ClientIP(), withdrawID, decision, "")
	if err != nil {
		logger.FromGin(c).Warn("audit write failed", "withdraw_id", withdrawID, "error", err)
	}
}

// AdminListSessions returns the session review queue, newest first.
func (h Handlers) AdminListSessions(c *gin.Context) {
	sessions, total, err := h.Sessions.ListAll(c.Request.Context(), pageParam(c))
	if err != nil {
		abortWithErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "total": total})
}

// AdminUpdateSession resolves a pending session. Approval stamps the access
// window and credits the chatter in the same transaction.
func (h Handlers) AdminUpdateSession(c *gin.Context) {
	actorID, actorRole, ok := identity(c)
	if !ok {
		return
	}

	var req session.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	sessionID := c.Param("id")
	sess, err := h.Sessions.Approve(c.Request.Context(), sessionID, req)
	if err != nil {
		abortWithErr(c, err)
		return
	}

	h.auditSessionDecision(c, actorID, actorRole, sessionID, string(req.Decision))
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// AdminDeleteSession removes a session outright.
func (h Handlers) AdminDeleteSession(c *gin.Context) {
	if err := h.Sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session deleted"})
}

// AdminListWithdraws returns the payout review queue, newest first.
func (h Handlers) AdminListWithdraws(c *gin.Context) {
	ws, total, err := h.Withdraws.ListAll(c.Request.Context(), pageParam(c))
	if err != nil {
		abortWithErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdraws": ws, "total": total})
}

type withdrawDecisionRequest struct {
	Status withdraw.Decision `json:"status"`
}

// AdminUpdateWithdraw resolves a pending payout request.
func (h Handlers) AdminUpdateWithdraw(c *gin.Context) {
	actorID, actorRole, ok := identity(c)
	if !ok {
		return
	}

	var req withdrawDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	withdrawID := c.Param("id")
	w, err := h.Withdraws.Complete(c.Request.Context(), withdrawID, req.Status)
	if err != nil {
		abortWithErr(c, err)
		return
	}

	h.auditWithdrawDecision(c, actorID, actorRole, withdrawID, string(req.Status))
	c.JSON(http.StatusOK, gin.H{"withdraw": w})
}
