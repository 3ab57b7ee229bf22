package httpapi

import (
	"errors"
	"net/http"

	"savora-be/internal/address"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type addressHandler struct {
	addresses address.Service
}

type addressRequest struct {
	FullName     string  `json:"full_name" binding:"required"`
	Phone        *string `json:"phone"`
	Line1        string  `json:"line1" binding:"required"`
	Line2        *string `json:"line2"`
	City         string  `json:"city" binding:"required"`
	Region       string  `json:"region" binding:"required"`
	PostalCode   string  `json:"postal_code" binding:"required"`
	Country      string  `json:"country" binding:"required"`
	SetAsDefault bool    `json:"set_as_default"`
}

func (h *addressHandler) List(c *gin.Context) {
	addrs, err := h.addresses.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load addresses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": addrs})
}

func (h *addressHandler) Create(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := h.addresses.Create(c.Request.Context(), address.CreateAddressInput{
		FullName:     req.FullName,
		Phone:        req.Phone,
		Line1:        req.Line1,
		Line2:        req.Line2,
		City:         req.City,
		Region:       req.Region,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		SetAsDefault: req.SetAsDefault,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create address"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"address": a})
}

func (h *addressHandler) Update(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := h.addresses.Update(c.Request.Context(), address.UpdateAddressInput{
		AddressID:    c.Param("id"),
		FullName:     req.FullName,
		Phone:        req.Phone,
		Line1:        req.Line1,
		Line2:        req.Line2,
		City:         req.City,
		Region:       req.Region,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		SetAsDefault: req.SetAsDefault,
	})
	if err != nil {
		if errors.Is(err, address.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update address"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": a})
}

func (h *addressHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address id"})
		return
	}

	if err := h.addresses.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, address.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete address"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *addressHandler) SetDefault(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address id"})
		return
	}

	if err := h.addresses.SetDefaultAddress(c.Request.Context(), id); err != nil {
		if errors.Is(err, address.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set default address"})
		return
	}

	c.Status(http.StatusNoContent)
}

// CheckoutForm shapes a saved address into the uniform checkout form. Legacy
// records without a phone still come back valid.
func (h *addressHandler) CheckoutForm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address id"})
		return
	}

	form, err := h.addresses.SelectForCheckout(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, address.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load address"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"form": form})
}
