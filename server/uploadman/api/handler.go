package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	commonauth "upload_server/server/common/auth"
	"upload_server/server/common/middleware"
	"upload_server/server/common/transport/httpresp"
	"upload_server/server/uploadman/domain"
	"upload_server/server/uploadman/service"
)

type uploader interface {
	Upload(ctx context.Context, filename, declaredType string, body io.Reader) (domain.FileRecord, string, error)
}

type statsReader interface {
	Totals(ctx context.Context) (uploads, bytes int64, err error)
}

type Handler struct {
	uploads        uploader
	stats          statsReader
	auth           *commonauth.Service
	maxUploadBytes int64
}

func NewHandler(uploads uploader, stats statsReader, auth *commonauth.Service, maxUploadBytes int64) *Handler {
	return &Handler{uploads: uploads, stats: stats, auth: auth, maxUploadBytes: maxUploadBytes}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Use(corsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpresp.NewStatusResponse("ok"))
	})

	authorized := r.Group("")
	authorized.Use(middleware.AuthRequired(h.auth))
	{
		authorized.POST("/upload", h.upload)
		authorized.GET("/stats", h.getStats)
	}
}

func (h *Handler) upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(httpresp.ErrNoFileProvided))
		return
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(httpresp.ErrFileTooLarge))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse("failed to open uploaded file"))
		return
	}
	defer file.Close()

	declaredType := fileHeader.Header.Get("Content-Type")
	rec, url, err := h.uploads.Upload(c.Request.Context(), fileHeader.Filename, declaredType, file)
	if err != nil {
		h.writeUploadError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpresp.NewUploadResponse(rec.ID, url))
}

func (h *Handler) writeUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnsupportedType):
		message := "unsupported file type. supported types: " + strings.Join(service.SupportedMediaTypes(), ", ")
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(message))
	case errors.Is(err, service.ErrStorage):
		c.JSON(http.StatusInternalServerError, httpresp.NewErrorResponse("storage error: object write failed"))
	case errors.Is(err, service.ErrPersistence):
		c.JSON(http.StatusInternalServerError, httpresp.NewErrorResponse("storage error: metadata write failed"))
	default:
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse("failed to read uploaded file"))
	}
}

func (h *Handler) getStats(c *gin.Context) {
	uploads, bytes, err := h.stats.Totals(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpresp.NewErrorResponse("statistics unavailable"))
		return
	}
	c.JSON(http.StatusOK, httpresp.StatsResponse{TotalUploads: uploads, TotalBytes: bytes})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
