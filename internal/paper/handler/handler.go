package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/papershelf/papershelf/backend/go-services/internal/config"
	"github.com/papershelf/papershelf/backend/go-services/internal/paper"
	"github.com/papershelf/papershelf/backend/go-services/internal/paper/service"
	"github.com/papershelf/papershelf/backend/go-services/internal/storage"
	"github.com/papershelf/papershelf/backend/go-services/pkg/logger"
	"github.com/papershelf/papershelf/backend/go-services/pkg/metrics"
	"github.com/papershelf/papershelf/backend/go-services/pkg/middleware"
)

const (
	multipartMemory = 8 << 20
	presignTTL      = 15 * time.Minute
)

type presigner interface {
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Handler serves /papers and the nested note routes.
type Handler struct {
	papers *service.PaperService
	notes  *service.NoteService
	files  storage.FileStore
	upload config.UploadConfig
}

func New(papers *service.PaperService, notes *service.NoteService, files storage.FileStore, upload config.UploadConfig) *Handler {
	if upload.FieldName == "" {
		upload.FieldName = "file"
	}
	if upload.MaxBytes <= 0 {
		upload.MaxBytes = 32 << 20
	}
	return &Handler{papers: papers, notes: notes, files: files, upload: upload}
}

// RegisterRoutes mounts the paper API on rg. auth guards every mutating route.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	p := rg.Group("/papers")
	p.GET("", h.listPapers)
	p.POST("", auth, h.createPaper)
	p.GET("/:id", h.getPaper)
	p.PUT("/:id", auth, h.updatePaper)
	p.DELETE("/:id", auth, h.deletePaper)
	p.GET("/:id/file", h.downloadFile)

	p.POST("/:id/notes", auth, h.addNote)
	p.GET("/:id/notes", h.listNotes)
	p.DELETE("/:id/notes/:noteId", auth, h.deleteNote)
}

func requester(c *gin.Context) (string, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return "", false
	}
	return u.ID, true
}

func (h *Handler) listPapers(c *gin.Context) {
	f := paper.NewFilter(c.Query("tag"), c.Query("author"), c.Query("journal"))
	list, err := h.papers.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) getPaper(c *gin.Context) {
	p, err := h.papers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) createPaper(c *gin.Context) {
	uid, ok := requester(c)
	if !ok {
		return
	}
	fields, err := h.decodeFields(c)
	if err != nil {
		writeError(c, err)
		return
	}
	key, err := h.storeUpload(c)
	if err != nil {
		writeError(c, err)
		return
	}
	p, err := h.papers.Create(c.Request.Context(), uid, fields, key)
	if err != nil {
		h.discardUpload(key)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) updatePaper(c *gin.Context) {
	uid, ok := requester(c)
	if !ok {
		return
	}
	fields, err := h.decodeFields(c)
	if err != nil {
		writeError(c, err)
		return
	}
	key, err := h.storeUpload(c)
	if err != nil {
		writeError(c, err)
		return
	}
	p, err := h.papers.Update(c.Request.Context(), c.Param("id"), uid, fields, key)
	if err != nil {
		h.discardUpload(key)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) deletePaper(c *gin.Context) {
	uid, ok := requester(c)
	if !ok {
		return
	}
	if err := h.papers.Delete(c.Request.Context(), c.Param("id"), uid); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Paper removed"})
}

func (h *Handler) downloadFile(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.papers.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if p.FileRef == "" || h.files == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "paper has no file"})
		return
	}
	if ps, ok := h.files.(presigner); ok {
		u, err := ps.PresignedURL(ctx, p.FileRef, presignTTL)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Redirect(http.StatusFound, u)
		return
	}
	rc, err := h.files.Open(ctx, p.FileRef)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()

	ct := mime.TypeByExtension(filepath.Ext(p.FileRef))
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.Header("Content-Disposition", `inline; filename="`+p.FileRef+`"`)
	c.DataFromReader(http.StatusOK, -1, ct, rc, nil)
}

func (h *Handler) addNote(c *gin.Context) {
	uid, ok := requester(c)
	if !ok {
		return
	}
	var body struct {
		Text string `json:"text" form:"text"`
	}
	if err := c.ShouldBind(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, fmt.Errorf("%w: %v", paper.ErrInvalidFieldFormat, err))
		return
	}
	n, err := h.notes.Add(c.Request.Context(), c.Param("id"), uid, body.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *Handler) listNotes(c *gin.Context) {
	list, err := h.notes.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) deleteNote(c *gin.Context) {
	uid, ok := requester(c)
	if !ok {
		return
	}
	if err := h.notes.Delete(c.Request.Context(), c.Param("id"), c.Param("noteId"), uid); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Note deleted successfully"})
}

// storeUpload saves the request's file part, if any, and returns its key.
// It runs before the record write.
func (h *Handler) storeUpload(c *gin.Context) (string, error) {
	if !isMultipart(c) {
		return "", nil
	}
	hdr, err := c.FormFile(h.upload.FieldName)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", paper.ErrInvalidFieldFormat, err)
	}
	if h.files == nil {
		return "", errors.New("file storage is not configured")
	}
	f, err := hdr.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := storage.NewKey(hdr.Filename)
	if err := h.files.Put(c.Request.Context(), key, f, hdr.Size, hdr.Header.Get("Content-Type")); err != nil {
		metrics.Uploads.WithLabelValues(h.files.Name(), "error").Inc()
		return "", err
	}
	metrics.Uploads.WithLabelValues(h.files.Name(), "ok").Inc()
	logger.Debugf("stored upload %s (%d bytes) in %s", key, hdr.Size, h.files.Name())
	return key, nil
}

// discardUpload removes an artifact whose record write failed. Best effort.
func (h *Handler) discardUpload(key string) {
	if key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.files.Delete(ctx, key); err != nil {
		logger.Warnf("discard orphaned upload %s: %v", key, err)
	}
}
