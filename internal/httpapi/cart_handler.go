package httpapi

import (
	"errors"
	"net/http"

	"savora-be/internal/cart"
	"savora-be/internal/catalog"
	"savora-be/internal/pricing"
	"savora-be/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type cartHandler struct {
	carts      cart.Service
	resolver   *catalog.Resolver
	pricingCfg pricing.Config
	currency   string
}

type cartLineResponse struct {
	ID            uuid.UUID               `json:"id"`
	Ref           catalog.ProductRef      `json:"ref"`
	Quantity      int                     `json:"quantity"`
	VariantID     *string                 `json:"variant_id,omitempty"`
	CombinationID *string                 `json:"combination_id,omitempty"`
	Product       catalog.ResolvedProduct `json:"product"`
	LineTotal     int64                   `json:"line_total"`
}

// View resolves every line through the fallback chain and prices the cart.
// Unavailable items stay visible with a placeholder; nothing is dropped.
func (h *cartHandler) View(c *gin.Context) {
	owner, err := ownerFromContext(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lines, err := h.carts.Lines(c.Request.Context(), owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cart"})
		return
	}

	products := h.resolver.Resolve(c.Request.Context(), cart.LineViews(lines))

	resp := make([]cartLineResponse, 0, len(lines))
	items := make([]pricing.Item, 0, len(lines))
	for i, l := range lines {
		p := products[i]
		resp = append(resp, cartLineResponse{
			ID:            l.ID,
			Ref:           l.Ref,
			Quantity:      l.Quantity,
			VariantID:     l.VariantID,
			CombinationID: l.CombinationID,
			Product:       p,
			LineTotal:     p.Price * int64(l.Quantity),
		})
		items = append(items, pricing.Item{UnitPrice: p.Price, Quantity: l.Quantity})
	}

	c.JSON(http.StatusOK, gin.H{
		"lines":    resp,
		"totals":   pricing.Calculate(items, h.pricingCfg, 0),
		"currency": h.currency,
	})
}

type addItemRequest struct {
	Kind          string  `json:"kind" binding:"required"`
	ProductID     string  `json:"product_id" binding:"required"`
	Quantity      int     `json:"quantity" binding:"required,min=1"`
	VariantID     *string `json:"variant_id"`
	CombinationID *string `json:"combination_id"`
}

func (h *cartHandler) AddItem(c *gin.Context) {
	owner, err := ownerFromContext(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	line, err := h.carts.Add(c.Request.Context(), cart.AddParams{
		Owner:         owner,
		Ref:           catalog.ProductRef{Kind: catalog.RefKind(req.Kind), ID: req.ProductID},
		Quantity:      req.Quantity,
		VariantID:     req.VariantID,
		CombinationID: req.CombinationID,
	})
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, cart.ErrProductNotFound):
			status = http.StatusNotFound
		case errors.Is(err, cart.ErrProductUnavailable):
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"line": line})
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *cartHandler) UpdateItem(c *gin.Context) {
	owner, err := ownerFromContext(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line id"})
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Quantity zero or below removes the line.
	if err := h.carts.UpdateQuantity(c.Request.Context(), cart.UpdateParams{
		Owner:    owner,
		LineID:   lineID,
		Quantity: req.Quantity,
	}); err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update cart"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *cartHandler) RemoveItem(c *gin.Context) {
	owner, err := ownerFromContext(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line id"})
		return
	}

	if err := h.carts.Remove(c.Request.Context(), owner, lineID); err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove line"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *cartHandler) Clear(c *gin.Context) {
	owner, err := ownerFromContext(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.carts.Clear(c.Request.Context(), owner); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear cart"})
		return
	}

	c.Status(http.StatusNoContent)
}

type mergeRequest struct {
	GuestID string `json:"guest_id" binding:"required,uuid"`
}

func (h *cartHandler) Merge(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	guestID, err := uuid.Parse(req.GuestID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid guest id"})
		return
	}

	if err := h.carts.MergeGuest(c.Request.Context(), guestID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to merge carts"})
		return
	}

	c.Status(http.StatusNoContent)
}
