package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"donetasker/internal/service"
)

type StatsHandler struct {
	statsService *service.StatsService
}

func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

func (h *StatsHandler) Completion(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	stats, apiErr := h.statsService.Completion(c.Request.Context(), userID, c.Query("range"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
