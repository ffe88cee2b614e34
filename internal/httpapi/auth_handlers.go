package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatline-platform/internal/account"
	"chatline-platform/internal/rbac"
)

type signupRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	PhoneNumber string `json:"phoneNumber"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
}

// Signup registers an account. Chatter applications land in the admin review
// queue rather than being approved on the spot.
func (h Handlers) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	a, err := h.Accounts.Signup(c.Request.Context(), account.SignupRequest{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		PhoneNumber: req.PhoneNumber,
		Age:         req.Age,
		Gender:      req.Gender,
	})
	if err != nil {
		abortWithErr(c, err)
		return
	}

	msg := "Signup successful! Redirecting to login..."
	if a.Role == rbac.RoleChatter {
		msg = "Your application has been submitted. Admin will review it soon!"
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg, "user": a})
}

type loginRequest struct {
	Login    string `json:"username_email"`
	Password string `json:"password"`
}

// Login validates credentials against the account store and issues a JWT
// token pair.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	a, err := h.Accounts.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		abortWithErr(c, err)
		return
	}

	pair, err := h.Auth.IssuePair(h.now(), a.ID, a.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user":          a,
	})
}

// Me returns the authenticated account.
func (h Handlers) Me(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	a, err := h.Accounts.Get(c.Request.Context(), userID)
	if err != nil {
		abortWithErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": a})
}
