package httpapi

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatline-platform/internal/session"
	"chatline-platform/internal/storage"
	"chatline-platform/pkg/logger"
)

// ChatterBusy reports whether the chatter's latest session is still inside
// its access window. Any authenticated caller may ask.
func (h Handlers) ChatterBusy(c *gin.Context) {
	chatterID := c.Query("chatter_id")
	if chatterID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "chatter_id required"})
		return
	}
	busy, err := h.Sessions.CheckBusy(c.Request.Context(), chatterID)
	if err != nil {
		abortWithErr(c, err)
		return
	}
	c.JSON(http.StatusOK, busy)
}

// SessionCheck returns the caller's latest session against a chatter, or the
// no-session sentinel status.
func (h Handlers) SessionCheck(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	chatterID := c.Query("chatter_id")
	if chatterID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "chatter_id required"})
		return
	}

	status, sess, err := h.Sessions.CheckSession(c.Request.Context(), userID, chatterID)
	if err != nil {
		abortWithErr(c, err)
		return
	}
	out := gin.H{"status": status}
	if sess != nil {
		out["session"] = sess
	}
	c.JSON(http.StatusOK, out)
}

const maxScreenshotBytes = 10 << 20

// PurchasePlan records a plan purchase awaiting admin review. Field
// validation and the duplicate-pending guard run first; the payment
// screenshot (multipart file "screenshot") is only uploaded once the request
// is otherwise going to be accepted.
func (h Handlers) PurchasePlan(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}

	price, _ := strconv.ParseInt(c.PostForm("price"), 10, 64)
	duration, _ := strconv.Atoi(c.PostForm("duration"))
	amountPaid, _ := strconv.ParseInt(c.PostForm("amount_paid"), 10, 64)

	req := session.CreateRequest{
		UserID:    userID,
		ChatterID: c.PostForm("chatter_id"),
		Plan: session.Plan{
			Title:           c.PostForm("title"),
			Price:           price,
			DurationMinutes: duration,
			Description:     c.PostForm("description"),
		},
		TransactionID:   c.PostForm("transaction_id"),
		BankName:        c.PostForm("bank_name"),
		PayerName:       c.PostForm("account_name"),
		PayerAccountNum: c.PostForm("account_number"),
		AmountPaid:      amountPaid,
	}

	file, err := c.FormFile("screenshot")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "screenshot required"})
		return
	}
	if file.Size > maxScreenshotBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "screenshot too large"})
		return
	}

	if err := h.Sessions.ValidatePurchase(c.Request.Context(), req); err != nil {
		abortWithErr(c, err)
		return
	}

	src, err := file.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable screenshot"})
		return
	}
	defer src.Close()

	key := storage.ScreenshotKey(filepath.Ext(file.Filename))
	url, err := h.Uploader.Upload(c.Request.Context(), key, file.Header.Get("Content-Type"), src)
	if err != nil {
		logger.FromGin(c).Error("screenshot upload failed", "error", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "screenshot upload failed"})
		return
	}
	req.TransactionSS = url

	sess, err := h.Sessions.CreatePending(c.Request.Context(), req)
	if err != nil {
		abortWithErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Purchase submitted. Admin will verify your payment soon!",
		"session": sess,
	})
}

// SessionHistory lists the caller's purchases, newest first.
func (h Handlers) SessionHistory(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	sessions, total, err := h.Sessions.ListByUser(c.Request.Context(), userID, pageParam(c))
	if err != nil {
		abortWithErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "total": total})
}

// ChatterSessions lists sessions sold by the authenticated chatter.
func (h Handlers) ChatterSessions(c *gin.Context) {
	chatterID, _, ok := identity(c)
	if !ok {
		return
	}
	sessions, total, err := h.Sessions.ListByChatter(c.Request.Context(), chatterID, pageParam(c))
	if err != nil {
		abortWithErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "total": total})
}
