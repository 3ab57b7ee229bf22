package httpapi

import (
	"errors"
	"net/http"

	"savora-be/internal/cart"
	"savora-be/internal/user"
	"savora-be/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type authHandler struct {
	users user.Service
	carts cart.Service
}

type credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *authHandler) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, u, err := h.users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	h.adoptGuestCart(c, uint(u.ID))
	setAuthCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  gin.H{"id": u.ID, "email": u.Email, "role": u.Role},
	})
}

func (h *authHandler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, u, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	h.adoptGuestCart(c, uint(u.ID))
	setAuthCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": u.ID, "email": u.Email, "role": u.Role},
	})
}

// adoptGuestCart merges a guest cart into the account when a guest session
// header accompanies login or registration.
func (h *authHandler) adoptGuestCart(c *gin.Context, userID uint) {
	guestHeader := c.GetHeader("X-Guest-ID")
	if guestHeader == "" {
		return
	}
	guestID, err := uuid.Parse(guestHeader)
	if err != nil {
		return
	}

	ctx := utils.SetUserContext(c.Request.Context(), userID, "", "")
	_ = h.carts.MergeGuest(ctx, guestID, userID)
}

func setAuthCookie(c *gin.Context, token string) {
	c.SetCookie("access_token", token, 24*60*60, "/", "", false, true)
}
