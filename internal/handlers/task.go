package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	dom "taskapi/internal/domain"
	"taskapi/internal/dto"
	"taskapi/internal/service"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	svc *service.TaskService
}

func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// List godoc
// @Summary      List all tasks
// @Tags         tasks
// @Produce      json
// @Success      200  {array}   dto.TaskResponse
// @Failure      503  {object}  handlers.ErrorResponse
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskResponses(list))
}

// Get godoc
// @Summary      Get a task by ID
// @Tags         tasks
// @Produce      json
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  dto.TaskResponse
// @Failure      400  {object}  handlers.ErrorResponse
// @Failure      404  {object}  handlers.ErrorResponse
// @Failure      503  {object}  handlers.ErrorResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskResponse(t))
}

// Create godoc
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        body  body      dto.TaskInput  false  "Task body"
// @Success      201   {object}  dto.TaskCreateResponse
// @Failure      400   {object}  handlers.ErrorResponse
// @Failure      503   {object}  handlers.ErrorResponse
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	in, ok := bindTaskInput(c)
	if !ok {
		return
	}
	t, err := h.svc.Create(c.Request.Context(), in.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToCreateResponse(t))
}

// Update godoc
// @Summary      Replace a task's title
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      int            true   "Task ID"
// @Param        body  body      dto.TaskInput  false  "Task body"
// @Success      200   {object}  dto.TaskCreateResponse
// @Failure      400   {object}  handlers.ErrorResponse
// @Failure      404   {object}  handlers.ErrorResponse
// @Failure      503   {object}  handlers.ErrorResponse
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	in, ok := bindTaskInput(c)
	if !ok {
		return
	}
	t, err := h.svc.Update(c.Request.Context(), id, in.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCreateResponse(t))
}

// Delete godoc
// @Summary      Delete a task
// @Tags         tasks
// @Param        id   path  int  true  "Task ID"
// @Success      204
// @Failure      400  {object}  handlers.ErrorResponse
// @Failure      404  {object}  handlers.ErrorResponse
// @Failure      503  {object}  handlers.ErrorResponse
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkDone godoc
// @Summary      Mark a task as done
// @Tags         done
// @Param        id   path  int  true  "Task ID"
// @Success      204
// @Failure      400  {object}  handlers.ErrorResponse
// @Failure      404  {object}  handlers.ErrorResponse
// @Failure      503  {object}  handlers.ErrorResponse
// @Router       /tasks/{id}/done [put]
func (h *TaskHandler) MarkDone(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.MarkDone(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UnmarkDone godoc
// @Summary      Mark a task as not done
// @Tags         done
// @Param        id   path  int  true  "Task ID"
// @Success      204
// @Failure      400  {object}  handlers.ErrorResponse
// @Failure      404  {object}  handlers.ErrorResponse
// @Failure      503  {object}  handlers.ErrorResponse
// @Router       /tasks/{id}/done [delete]
func (h *TaskHandler) UnmarkDone(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.UnmarkDone(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(c, fmt.Errorf("invalid id %q: %w", raw, dom.ErrValidation))
		return 0, false
	}
	return id, true
}

// bindTaskInput decodes the optional JSON body. An empty body means no title.
func bindTaskInput(c *gin.Context) (dto.TaskInput, bool) {
	var in dto.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, fmt.Errorf("invalid body: %w: %v", dom.ErrValidation, err))
		return dto.TaskInput{}, false
	}
	return in, true
}
