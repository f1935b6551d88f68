package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"donetasker/internal/service"
)

type CommentHandler struct {
	commentService *service.CommentService
}

type commentRequest struct {
	Content string `json:"content"`
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	comments, apiErr := h.commentService.List(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (h *CommentHandler) Add(c *gin.Context) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	comment, apiErr := h.commentService.Add(c.Request.Context(), userID, c.Param("id"), req.Content)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}
