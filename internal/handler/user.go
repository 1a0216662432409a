package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/set-night/clickpulse/internal/middleware"
	"github.com/set-night/clickpulse/internal/service"
)

func (h *Handler) UserSignIn(c *gin.Context) {
	var req signInRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	token, err := h.signIn.SignInRequester(c.Request.Context(), req.PublicKey, req.Signature)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.tasks.ListTasks(c.Request.Context(), middleware.SubjectID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = toTask(t)
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetTask(c *gin.Context) {
	taskID, err := parseID(c.Query("taskId"))
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.tasks.GetTaskResult(c.Request.Context(), middleware.SubjectID(c), taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResult(result))
}

func (h *Handler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), service.CreateTaskInput{
		OwnerID:          middleware.SubjectID(c),
		Title:            req.Title,
		ImageURLs:        req.imageURLs(),
		PaymentSignature: req.Signature,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": task.ID})
}

func (h *Handler) PresignedURL(c *gin.Context) {
	target, err := h.uploads.PresignUpload(c.Request.Context(), middleware.SubjectID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": target.URL, "fields": target.Fields})
}
