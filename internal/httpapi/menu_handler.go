package httpapi

import (
	"errors"
	"net/http"

	"savora-be/internal/catalog"

	"github.com/gin-gonic/gin"
)

type menuHandler struct {
	catalog catalog.Service
}

func (h *menuHandler) Categories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *menuHandler) Items(c *gin.Context) {
	var categoryID *string
	if v := c.Query("category_id"); v != "" {
		categoryID = &v
	}

	items, err := h.catalog.ListMenu(c.Request.Context(), categoryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load menu"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *menuHandler) Item(c *gin.Context) {
	item, err := h.catalog.GetMenuItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "menu item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load menu item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}
