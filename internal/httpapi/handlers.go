package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"chatline-platform/internal/account"
	"chatline-platform/internal/audit"
	"chatline-platform/internal/auth"
	"chatline-platform/internal/ledger"
	"chatline-platform/internal/message"
	"chatline-platform/internal/metrics"
	"chatline-platform/internal/session"
	"chatline-platform/internal/storage"
	"chatline-platform/internal/withdraw"
)

// Broadcaster pushes a persisted message into its session's live room.
type Broadcaster interface {
	BroadcastMessage(m message.Message)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth      *auth.Manager
	Accounts  *account.Service
	Sessions  *session.Service
	Messages  *message.Service
	Withdraws *withdraw.Service
	Audit     *audit.Service

	Uploader storage.Uploader
	Gateway  Broadcaster
	Metrics  *metrics.Collector

	// MaxVoiceUploadBytes caps the voice note body. Zero means the
	// default 15 MiB.
	MaxVoiceUploadBytes int64

	// Clock is injectable for deterministic tests.
	Clock func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

// statusFromErr maps service sentinel errors onto HTTP statuses. Anything
// unrecognized is a 500 and the raw error stays out of the response body.
func statusFromErr(err error) int {
	switch {
	case errors.Is(err, session.ErrInvalidArgument),
		errors.Is(err, message.ErrInvalidArgument),
		errors.Is(err, withdraw.ErrInvalidArgument),
		errors.Is(err, ledger.ErrInvalidArgument),
		errors.Is(err, account.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, message.ErrNotFound),
		errors.Is(err, withdraw.ErrNotFound),
		errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, account.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNotPending),
		errors.Is(err, withdraw.ErrNotPending),
		errors.Is(err, session.ErrPendingExists),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, account.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, withdraw.ErrNoFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, account.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, account.ErrAccountPending),
		errors.Is(err, account.ErrAccountRejected),
		errors.Is(err, account.ErrAccountBanned):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func abortWithErr(c *gin.Context, err error) {
	status := statusFromErr(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// identity pulls the authenticated user out of the request context, aborting
// with 401 when the middleware did not run.
func identity(c *gin.Context) (userID, role string, ok bool) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil || userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return "", "", false
	}
	role, _ = auth.Role(c.Request.Context())
	return userID, role, true
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
