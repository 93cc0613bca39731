package workflow

import (
	"errors"
	"net/http"

	"github.com/khadkaarun/Restaurant-Website/internal/order"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Start(c *gin.Context) {
	var req struct {
		OrderID string `json:"order_id"`
		ItemID  string `json:"item_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" || req.ItemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_id and item_id are required"})
		return
	}

	sess, err := h.service.Start(c.Request.Context(), req.OrderID, req.ItemID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, order.ErrNotFound) || errors.Is(err, order.ErrItemNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": sess})
}

func (h *Handler) Advance(c *gin.Context) {
	var req struct {
		Event  Event  `json:"event"`
		Params Params `json:"params"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Event == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event is required"})
		return
	}

	res, err := h.service.Advance(c.Request.Context(), c.Param("id"), req.Event, &req.Params)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, ErrBadTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, res)
}
