package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatline-platform/internal/withdraw"
)

// ChatterBalance returns the authenticated chatter's ledger buckets, the
// numbers the withdraw screen renders.
func (h Handlers) ChatterBalance(c *gin.Context) {
	chatterID, _, ok := identity(c)
	if !ok {
		return
	}
	bal, err := h.Withdraws.Balance(c.Request.Context(), chatterID)
	if err != nil {
		abortWithErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": bal})
}

// RequestWithdraw creates a payout request for the chatter's entire available
// balance.
func (h Handlers) RequestWithdraw(c *gin.Context) {
	chatterID, _, ok := identity(c)
	if !ok {
		return
	}

	var in withdraw.RequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	w, err := h.Withdraws.Request(c.Request.Context(), chatterID, in)
	if err != nil {
		abortWithErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Withdraw request submitted. Admin will process it soon!",
		"withdraw": w,
	})
}

// ListWithdraws returns the chatter's payout history, newest first.
func (h Handlers) ListWithdraws(c *gin.Context) {
	chatterID, _, ok := identity(c)
	if !ok {
		return
	}
	ws, total, err := h.Withdraws.ListByChatter(c.Request.Context(), chatterID, pageParam(c))
	if err != nil {
		abortWithErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdraws": ws, "total": total})
}
