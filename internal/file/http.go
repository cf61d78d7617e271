package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/abduss/filegate/internal/contenttype"
	"github.com/abduss/filegate/internal/logger"
	"github.com/abduss/filegate/internal/pages"
	"github.com/abduss/filegate/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandlerOptions configures the HTTP surface of the file service.
type HandlerOptions struct {
	FieldName    string
	PublicScheme string
	Developer    string
	NotFoundPage string

	// StrictFetch reports store failures on retrieval as 502 instead of the
	// not-found page.
	StrictFetch bool
}

// RegisterRoutes mounts upload, listing and retrieval routes.
func RegisterRoutes(router gin.IRoutes, service *Service, opts HandlerOptions) {
	if opts.FieldName == "" {
		opts.FieldName = "fileInput"
	}
	if opts.PublicScheme == "" {
		opts.PublicScheme = "https"
	}

	handler := &httpHandler{service: service, opts: opts, log: service.log}
	router.POST("/upload", handler.upload)
	router.GET("/files", handler.summarize)
	router.GET("/file/:filename", handler.fetch)
	router.HEAD("/file/:filename", handler.fetch)
}

type httpHandler struct {
	service *Service
	opts    HandlerOptions
	log     *zap.Logger
}

func (h *httpHandler) upload(c *gin.Context) {
	part, err := filePart(c.Request, h.opts.FieldName)
	if err != nil {
		writeJSON(c, http.StatusBadRequest, gin.H{"error": msgNoFile})
		return
	}
	defer part.Close()

	res, err := h.service.Upload(c.Request.Context(), part, part.FileName())
	if err != nil {
		switch {
		case errors.Is(err, ErrFileTooLarge):
			writeJSON(c, http.StatusBadRequest, gin.H{"error": msgTooLarge})
		default:
			h.log.Error("upload failed", zap.String("correlation_id", logger.CorrelationID(c)), zap.Error(err))
			writeJSON(c, http.StatusInternalServerError, gin.H{"error": msgInternal})
		}
		return
	}

	writeJSON(c, http.StatusOK, Receipt{
		Developer: h.opts.Developer,
		Status:    "success",
		Response:  fmt.Sprintf("%dms", res.Elapsed.Milliseconds()),
		Type:      res.ContentType,
		MimeType:  res.ContentType,
		FileSize:  fmt.Sprintf("%.2f KB", float64(res.SizeBytes)/1024),
		URL:       fmt.Sprintf("%s://%s/file/%s", h.opts.PublicScheme, c.Request.Host, res.Name),
	})
}

func (h *httpHandler) summarize(c *gin.Context) {
	sum, err := h.service.Summarize(c.Request.Context())
	if err != nil {
		h.log.Error("listing failed", zap.String("correlation_id", logger.CorrelationID(c)), zap.Error(err))
		writeJSON(c, http.StatusInternalServerError, gin.H{"error": msgInternal})
		return
	}
	writeJSON(c, http.StatusOK, sum)
}

func (h *httpHandler) fetch(c *gin.Context) {
	key := c.Param("filename")

	obj, err := h.service.Fetch(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			pages.Write(c, http.StatusNotFound, h.opts.NotFoundPage, "File not found")
			return
		}
		h.log.Error("fetch failed",
			zap.String("correlation_id", logger.CorrelationID(c)),
			zap.String("key", key),
			zap.Error(err),
		)
		if h.opts.StrictFetch {
			writeJSON(c, http.StatusBadGateway, gin.H{"error": msgInternal})
			return
		}
		pages.Write(c, http.StatusNotFound, h.opts.NotFoundPage, "File not found")
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = contenttype.Default
	}
	if c.Request.Method == http.MethodHead {
		c.Header("Content-Type", contentType)
		if obj.Size >= 0 {
			c.Header("Content-Length", strconv.FormatInt(obj.Size, 10))
		}
		c.Status(http.StatusOK)
		return
	}
	// Size is -1 when unknown; the body is then sent without Content-Length.
	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, nil)
}

// filePart advances r's multipart body to the first file under field.
func filePart(r *http.Request, field string) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, ErrNoFile
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, ErrNoFile
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoFile, err)
		}
		if part.FormName() == field && part.FileName() != "" {
			return part, nil
		}
		_ = part.Close()
	}
}

// writeJSON responds with v indented by two spaces.
func writeJSON(c *gin.Context, status int, v any) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json; charset=utf-8", body)
}
