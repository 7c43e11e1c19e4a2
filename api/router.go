package api

import (
	"uniqueizer/config"
	"uniqueizer/task"

	"github.com/gin-gonic/gin"
)

func SetupRouter(tm *task.Manager, cfg *config.Config) *gin.Engine {
	r := gin.Default()
	h := NewHandler(tm, cfg)

	r.GET("/", h.handleRoot)

	api := r.Group("/api")
	api.Use(AuthMiddleware(cfg))
	{
		api.POST("/upload", h.handleUpload)
		api.GET("/status/:taskId", h.handleStatus)
		api.GET("/result/:taskId", h.handleResult)
		api.GET("/download/archive/:taskId", h.handleDownloadArchive)
		api.GET("/download/:taskId/:filename", h.handleDownloadFile)
		api.DELETE("/task/:taskId", h.handleDeleteTask)
		api.POST("/cleanup", h.handleCleanup)
		api.GET("/storage", h.handleStorage)
		api.GET("/health", h.handleHealth)
	}
	return r
}
