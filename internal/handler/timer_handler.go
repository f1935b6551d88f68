package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"donetasker/internal/model"
	"donetasker/internal/service"
	"donetasker/internal/stopwatch"
)

type TimerHandler struct {
	timerService *service.TimerService
	tickInterval time.Duration
}

type timerView struct {
	Session *model.WorkSession `json:"session"`
	Total   *service.TotalView `json:"total"`
}

// streamEvent is the payload of every SSE event on the timer stream.
type streamEvent struct {
	Frame stopwatch.Frame    `json:"frame"`
	Total *service.TotalView `json:"total,omitempty"`
}

func NewTimerHandler(timerService *service.TimerService, tickInterval time.Duration) *TimerHandler {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &TimerHandler{timerService: timerService, tickInterval: tickInterval}
}

func (h *TimerHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	taskID := c.Param("id")

	session, apiErr := h.timerService.ActiveSession(ctx, userID, taskID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	total, apiErr := h.timerService.TotalTime(ctx, userID, taskID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, timerView{Session: session, Total: total})
}

func (h *TimerHandler) Start(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	session, apiErr := h.timerService.Start(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (h *TimerHandler) Stop(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	taskID := c.Param("id")

	session, apiErr := h.timerService.Stop(ctx, userID, taskID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	total, apiErr := h.timerService.TotalTime(ctx, userID, taskID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, timerView{Session: session, Total: total})
}

func (h *TimerHandler) History(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	limit := 50
	if rawLimit := c.Query("limit"); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	sessions, apiErr := h.timerService.History(c.Request.Context(), userID, c.Param("id"), limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// Stream pushes a "tick" event per interval while the task's session is open,
// then a "stopped" event carrying the new total. A task with no open session
// gets a single "idle" event.
func (h *TimerHandler) Stream(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	taskID := c.Param("id")

	open, apiErr := h.timerService.ActiveSession(ctx, userID, taskID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	frames := make(chan stopwatch.Frame, 1)
	display := stopwatch.NewDisplay(h.timerService.Clock(), h.tickInterval, func(f stopwatch.Frame) {
		select {
		case frames <- f:
		default:
		}
	})
	defer display.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if open == nil {
		total, apiErr := h.timerService.TotalTime(ctx, userID, taskID)
		if apiErr != nil {
			c.SSEvent("error", apiErr)
			return
		}
		c.SSEvent("idle", streamEvent{Frame: display.Set(nil, false), Total: total})
		c.Writer.Flush()
		return
	}

	start := open.StartTime
	pending := []streamEvent{{Frame: display.Set(&start, true)}}

	c.Stream(func(w io.Writer) bool {
		if len(pending) > 0 {
			c.SSEvent("tick", pending[0])
			pending = pending[1:]
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case frame := <-frames:
			current, apiErr := h.timerService.ActiveSession(ctx, userID, taskID)
			if apiErr != nil {
				c.SSEvent("error", apiErr)
				return false
			}
			if current != nil && current.ID == open.ID {
				c.SSEvent("tick", streamEvent{Frame: frame})
				return true
			}

			total, apiErr := h.timerService.TotalTime(ctx, userID, taskID)
			if apiErr != nil {
				c.SSEvent("error", apiErr)
				return false
			}
			stopped := display.Stop(time.Duration(total.TotalMilliseconds) * time.Millisecond)
			c.SSEvent("stopped", streamEvent{Frame: stopped, Total: total})
			return false
		}
	})
}
