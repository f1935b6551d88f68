package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"donetasker/internal/model"
	"donetasker/internal/service"
)

type SubtaskHandler struct {
	subtaskService *service.SubtaskService
}

type subtaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type subtaskStatusRequest struct {
	Status string `json:"status"`
}

func NewSubtaskHandler(subtaskService *service.SubtaskService) *SubtaskHandler {
	return &SubtaskHandler{subtaskService: subtaskService}
}

func (h *SubtaskHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	subtasks, apiErr := h.subtaskService.List(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subtasks": subtasks})
}

func (h *SubtaskHandler) Add(c *gin.Context) {
	var req subtaskRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	subtask, apiErr := h.subtaskService.Add(c.Request.Context(), userID, c.Param("id"), service.CreateSubtaskInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subtask": subtask})
}

func (h *SubtaskHandler) SetStatus(c *gin.Context) {
	var req subtaskStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	subtask, apiErr := h.subtaskService.SetStatus(c.Request.Context(), userID, c.Param("id"), c.Param("subtaskId"), model.SubtaskStatus(req.Status))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subtask": subtask})
}
