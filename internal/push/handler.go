package push

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Subscribe(c *gin.Context) {
	var req struct {
		Subscription Subscription `json:"subscription"`
		UserID       string       `json:"user_id"`
		UserAgent    string       `json:"user_agent"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.service.Subscribe(c.Request.Context(), &req.Subscription, req.UserID, req.UserAgent); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
