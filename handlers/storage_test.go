package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthonycoffey/simply-voice/config"
	"github.com/anthonycoffey/simply-voice/middleware"
	"github.com/anthonycoffey/simply-voice/services"
)

func storageRouter(t *testing.T, userID uuid.UUID) (*gin.Engine, *services.BlobStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := services.NewBlobStore(config.StorageConfig{
		Dir:          t.TempDir(),
		URLSecret:    "test-secret",
		SignTTLHours: 168,
	}, "")

	r := gin.New()
	h := NewStorageHandler(store)
	authed := r.Group("")
	authed.Use(func(c *gin.Context) { c.Set(middleware.CtxUserID, userID) })
	authed.POST("/api/storage/upload", h.Upload)
	authed.POST("/api/storage/refresh", h.Refresh)
	r.GET("/storage/v1/object/sign/tts-files/*path", h.ServeObject)
	return r, store
}

func multipartAudio(t *testing.T, name string, audio []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "speech.wav")
	require.NoError(t, err)
	_, err = fw.Write(audio)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("name", name))
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestUploadThenFetchReturnsExactBytes(t *testing.T) {
	userID := uuid.New()
	r, _ := storageRouter(t, userID)
	audio := []byte("RIFF....WAVEfmt data")

	body, contentType := multipartAudio(t, "greeting", audio)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/storage/upload", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Path string `json:"path"`
		URL  string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.Path, userID.String()+"/"))

	// The signed URL the upload answered with must resolve to the same bytes.
	gw := httptest.NewRecorder()
	greq := httptest.NewRequest(http.MethodGet, resp.URL, nil)
	r.ServeHTTP(gw, greq)

	require.Equal(t, http.StatusOK, gw.Code)
	assert.Equal(t, audio, gw.Body.Bytes())
}

func TestServeObjectRejectsTamperedToken(t *testing.T) {
	userID := uuid.New()
	r, store := storageRouter(t, userID)

	path, signed, err := store.Upload(userID, []byte("audio"), "clip")
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	q := u.Query()
	q.Set("token", "deadbeef")
	u.RawQuery = q.Encode()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, u.String(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code, "tampered token must not expose %s", path)
}

func TestRefreshReissuesURLForOwnPath(t *testing.T) {
	userID := uuid.New()
	r, store := storageRouter(t, userID)

	path, _, err := store.Upload(userID, []byte("audio"), "clip")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/storage/refresh",
		strings.NewReader(fmt.Sprintf(`{"path": %q}`, path)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	gw := httptest.NewRecorder()
	greq := httptest.NewRequest(http.MethodGet, resp.URL, nil)
	r.ServeHTTP(gw, greq)
	require.Equal(t, http.StatusOK, gw.Code)
	assert.Equal(t, "audio", gw.Body.String())
}

func TestRefreshAcceptsPreviouslyIssuedURL(t *testing.T) {
	userID := uuid.New()
	r, store := storageRouter(t, userID)

	_, signed, err := store.Upload(userID, []byte("audio"), "clip")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/storage/refresh",
		strings.NewReader(fmt.Sprintf(`{"url": %q}`, signed)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRefreshRejectsForeignPath(t *testing.T) {
	userID := uuid.New()
	r, store := storageRouter(t, userID)

	stranger := uuid.New()
	path, _, err := store.Upload(stranger, []byte("audio"), "clip")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/storage/refresh",
		strings.NewReader(fmt.Sprintf(`{"path": %q}`, path)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUploadRequiresFile(t *testing.T) {
	userID := uuid.New()
	r, _ := storageRouter(t, userID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/storage/upload", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
