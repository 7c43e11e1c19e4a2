package api

import (
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"uniqueizer/config"
	"uniqueizer/task"

	"github.com/gin-gonic/gin"
	"github.com/lithammer/shortuuid/v4"
)

var allowedExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
}

var allowedFormats = map[string]bool{
	"mp4": true, "mov": true, "avi": true, "mkv": true,
}

type Handler struct {
	taskManager *task.Manager
	cfg         *config.Config
}

func NewHandler(tm *task.Manager, cfg *config.Config) *Handler {
	return &Handler{
		taskManager: tm,
		cfg:         cfg,
	}
}

func (h *Handler) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Video Uniqueizer API",
		"version": "1.0.0",
		"status":  "running",
	})
}

type uploadRequest struct {
	Copies int    `form:"copies" binding:"required,min=1"`
	Format string `form:"format"`
}

// handleUpload validates the submission, stages the source file, and kicks
// off a fire-and-forget job. Nothing is created on validation failure.
func (h *Handler) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadSize)

	var req uploadRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request: %v", err)})
		return
	}
	if req.Copies > h.cfg.MaxCopies {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Copy count must be between 1 and %d", h.cfg.MaxCopies)})
		return
	}
	if req.Format == "" {
		req.Format = "mp4"
	}
	if !allowedFormats[req.Format] {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported output format: %s", req.Format)})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A media file is required"})
		return
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported file extension: %s", ext)})
		return
	}

	stagedPath := filepath.Join(h.cfg.UploadDir, shortuuid.New()+ext)
	if err := c.SaveUploadedFile(fileHeader, stagedPath); err != nil {
		os.Remove(stagedPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Could not save upload: %v", err)})
		return
	}
	log.Printf("Upload saved to %s (%d bytes), requesting %d copies", stagedPath, fileHeader.Size, req.Copies)

	t := h.taskManager.Submit(stagedPath, req.Copies, req.Format)
	c.JSON(http.StatusAccepted, gin.H{
		"taskId":   t.ID,
		"status":   t.Status,
		"progress": t.Progress,
		"total":    t.Total,
	})
}

func (h *Handler) handleStatus(c *gin.Context) {
	t, found := h.taskManager.Get(c.Param("taskId"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	resp := gin.H{
		"taskId":   t.ID,
		"status":   t.Status,
		"progress": t.Progress,
		"total":    t.Total,
	}
	if t.Status == task.StatusFailed && t.Error != "" {
		resp["message"] = t.Error
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) handleResult(c *gin.Context) {
	taskID := c.Param("taskId")
	t, err := h.taskManager.Result(taskID)
	switch {
	case errors.Is(err, task.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	case errors.Is(err, task.ErrNotCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "Task not completed", "status": t.Status})
		return
	}

	resp := gin.H{
		"taskId": t.ID,
		"status": t.Status,
		"files":  t.Files,
	}
	if t.ArchiveName != "" {
		resp["archiveUrl"] = h.buildURL(c, fmt.Sprintf("/api/download/archive/%s", taskID))
	}
	c.JSON(http.StatusOK, resp)
}

// handleDownloadArchive serves the task's archive, then consumes the task:
// once the download has been served, the working directory and the record
// are gone and a later status query returns not-found. Bounded storage by
// design.
func (h *Handler) handleDownloadArchive(c *gin.Context) {
	taskID := c.Param("taskId")
	path, err := h.taskManager.ArchivePath(taskID)
	switch {
	case errors.Is(err, task.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	case errors.Is(err, task.ErrNotCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "Task not completed"})
		return
	case errors.Is(err, task.ErrNoArchive):
		c.JSON(http.StatusNotFound, gin.H{"error": "Archive not available"})
		return
	}

	c.FileAttachment(path, fmt.Sprintf("unique_videos_%s.zip", taskID))

	freed := h.taskManager.Delete(taskID)
	log.Printf("Task %s consumed by archive download, freed %d bytes", taskID, freed)
}

func (h *Handler) handleDownloadFile(c *gin.Context) {
	filename := c.Param("filename")
	path, err := h.taskManager.FilePath(c.Param("taskId"), filename)
	switch {
	case errors.Is(err, task.ErrInvalidFilename):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filename"})
		return
	case errors.Is(err, task.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	case errors.Is(err, task.ErrFileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	c.FileAttachment(path, filename)
}

func (h *Handler) handleDeleteTask(c *gin.Context) {
	freed := h.taskManager.Delete(c.Param("taskId"))
	c.JSON(http.StatusOK, gin.H{
		"message":    "Task deleted",
		"freedBytes": freed,
		"freedMB":    roundMB(freed),
	})
}

func (h *Handler) handleCleanup(c *gin.Context) {
	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil || hours < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be a non-negative integer"})
		return
	}

	removed, freed := h.taskManager.Sweep(time.Duration(hours) * time.Hour)
	c.JSON(http.StatusOK, gin.H{
		"message":      "Cleanup completed",
		"tasksRemoved": removed,
		"spaceFreedMB": roundMB(freed),
		"spaceFreedGB": roundGB(freed),
	})
}

func (h *Handler) handleStorage(c *gin.Context) {
	c.JSON(http.StatusOK, h.taskManager.StorageInfo())
}

func (h *Handler) handleHealth(c *gin.Context) {
	info := h.taskManager.StorageInfo()
	_, ffErr := exec.LookPath(h.cfg.FFBin)
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"ffmpeg":        ffErr == nil,
		"activeTasks":   info.TaskCount,
		"storageUsedMB": roundMB(info.TotalBytes),
		"storageUsedGB": roundGB(info.TotalBytes),
		"fileCount":     info.FileCount,
		"freeDiskBytes": info.FreeDisk,
	})
}

// buildURL prefixes a path with the configured base URL, falling back to
// the request's scheme and host.
func (h *Handler) buildURL(c *gin.Context, path string) string {
	baseURL := h.cfg.BaseURL
	if baseURL == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, c.Request.Host)
	}
	return strings.TrimSuffix(baseURL, "/") + path
}

func roundMB(bytes int64) float64 {
	return math.Round(float64(bytes)/(1024*1024)*100) / 100
}

func roundGB(bytes int64) float64 {
	return math.Round(float64(bytes)/(1024*1024*1024)*100) / 100
}
