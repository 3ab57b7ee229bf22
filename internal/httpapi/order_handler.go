package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"savora-be/internal/order"
	"savora-be/internal/user"
	"savora-be/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type orderHandler struct {
	orders order.Service
}

func (h *orderHandler) List(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	orders, err := h.orders.GetOrders(c.Request.Context(), userID, limit, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *orderHandler) Detail(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	isAdmin := utils.GetUserRoleFromContext(ctx) == string(user.RoleAdmin)

	o, err := h.orders.GetOrderDetail(ctx, userID, orderID, isAdmin)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": o})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *orderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.orders.UpdateOrderStatus(c.Request.Context(), orderID, order.Status(req.Status)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
