package order

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrInvalidCart),
		errors.Is(err, ErrItemUnavailable),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrSameItem):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrOrderNotOpen):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrPaymentNotCompleted):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// --------------------------------------------------
// Public checkout
// --------------------------------------------------

type checkoutRequest struct {
	Cart            []CartItem      `json:"cart"`
	Customer        CustomerDetails `json:"customer"`
	SpecialRequests string          `json:"special_requests"`
}

func (h *Handler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// Present for logged-in customers, empty for guest checkout.
	userID := c.GetString("userID")

	sess, err := h.service.Checkout(c.Request.Context(), req.Cart, req.Customer, userID, req.SpecialRequests)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id":   sess.ID,
		"checkout_url": sess.URL,
	})
}

type verifyRequest struct {
	SessionID string `json:"session_id"`
}

func (h *Handler) VerifyCheckout(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	o, err := h.service.VerifyCheckout(c.Request.Context(), req.SessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

func (h *Handler) VerifyAdditionalCharge(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	o, err := h.service.VerifyAdditionalCharge(c.Request.Context(), req.SessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

// --------------------------------------------------
// Customer
// --------------------------------------------------

func (h *Handler) MyOrders(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	orders, err := h.service.ListOrdersByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// --------------------------------------------------
// Staff
// --------------------------------------------------

func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.service.ListOrders(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) GetOrder(c *gin.Context) {
	o, err := h.service.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	o, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

func (h *Handler) CancelOrder(c *gin.Context) {
	if err := h.service.CancelOrder(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order cancelled and refunded"})
}

func (h *Handler) CancelItem(c *gin.Context) {
	o, err := h.service.CancelItem(c.Request.Context(), c.Param("id"), c.Param("itemID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

func (h *Handler) SwapItem(c *gin.Context) {
	var req struct {
		NewMenuItemID string `json:"new_menu_item_id"`
		VariantName   string `json:"variant_name"`
		Quantity      int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.NewMenuItemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new_menu_item_id is required"})
		return
	}

	o, err := h.service.SwapItem(c.Request.Context(), c.Param("id"), c.Param("itemID"), req.NewMenuItemID, req.VariantName, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

func (h *Handler) SwapVariant(c *gin.Context) {
	var req struct {
		VariantName string `json:"variant_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.VariantName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "variant_name is required"})
		return
	}

	o, err := h.service.SwapVariant(c.Request.Context(), c.Param("id"), c.Param("itemID"), req.VariantName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}
