package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/anthonycoffey/simply-voice/middleware"
	"github.com/anthonycoffey/simply-voice/services"
)

type StorageHandler struct {
	store *services.BlobStore
}

func NewStorageHandler(store *services.BlobStore) *StorageHandler {
	return &StorageHandler{store: store}
}

// Upload persists one audio blob under the caller's prefix and answers with
// the storage path and a fresh signed URL.
func (h *StorageHandler) Upload(c *gin.Context) {
	userID := c.MustGet(middleware.CtxUserID).(uuid.UUID)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing audio file"})
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil || len(audio) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing audio file"})
		return
	}

	name := c.PostForm("name")
	if name == "" {
		name = strings.TrimSuffix(header.Filename, ".wav")
	}

	path, url, err := h.store.Upload(userID, audio, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload audio"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path, "url": url})
}

type refreshReq struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Refresh re-derives a signed URL from a stored path, or from a previously
// issued URL when the caller only kept that.
func (h *StorageHandler) Refresh(c *gin.Context) {
	userID := c.MustGet(middleware.CtxUserID).(uuid.UUID)

	var req refreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}

	path := req.Path
	if path == "" && req.URL != "" {
		var ok bool
		if path, ok = services.ExtractObjectPath(req.URL); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unrecognized audio URL"})
			return
		}
	}
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}

	owner, _, _ := strings.Cut(path, "/")
	if owner != userID.String() {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only access your own files"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": h.store.SignURL(path)})
}

// ServeObject resolves a signed URL: it validates the token and expiry,
// then streams the blob.
func (h *StorageHandler) ServeObject(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")

	expires, err := strconv.ParseInt(c.Query("expires"), 10, 64)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid or expired signature"})
		return
	}
	if err := h.store.VerifyToken(path, c.Query("token"), expires); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid or expired signature"})
		return
	}

	audio, err := h.store.Open(path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Object not found"})
		return
	}
	c.Data(http.StatusOK, "audio/wav", audio)
}
