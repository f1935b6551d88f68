package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "donetasker/internal/errors"
	"donetasker/internal/service"
)

type TaskHandler struct {
	taskService *service.TaskService
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
	AssigneeID  string `json:"assigneeId"`
	CategoryID  string `json:"categoryId"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Notes       *string `json:"notes"`
	CategoryID  *string `json:"categoryId"`
}

type completionRequest struct {
	Completed *bool `json:"completed"`
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	tasks, apiErr := h.taskService.List(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	task, apiErr := h.taskService.Create(c.Request.Context(), userID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Notes:       req.Notes,
		AssigneeID:  req.AssigneeID,
		CategoryID:  req.CategoryID,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

func (h *TaskHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	task, apiErr := h.taskService.Get(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) Update(c *gin.Context) {
	var req updateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	task, apiErr := h.taskService.Update(c.Request.Context(), userID, c.Param("id"), service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Notes:       req.Notes,
		CategoryID:  req.CategoryID,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if apiErr := h.taskService.Delete(c.Request.Context(), userID, c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	noContent(c)
}

func (h *TaskHandler) SetCompletion(c *gin.Context) {
	var req completionRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Completed == nil {
		writeError(c, apperrors.BadRequest("invalid_completion", "completed is required"))
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	task, apiErr := h.taskService.SetCompleted(c.Request.Context(), userID, c.Param("id"), *req.Completed)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if apiErr := h.taskService.Reorder(c.Request.Context(), userID, req.IDs); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	noContent(c)
}
