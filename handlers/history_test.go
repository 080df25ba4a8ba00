package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthonycoffey/simply-voice/middleware"
	"github.com/anthonycoffey/simply-voice/models"
)

type fakeHistoryRepo struct {
	records    map[uuid.UUID]*models.HistoryRecord
	deleted    []uuid.UUID
	createdRec *models.HistoryRecord
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{records: make(map[uuid.UUID]*models.HistoryRecord)}
}

func (f *fakeHistoryRepo) Create(rec *models.HistoryRecord) error {
	rec.ID = uuid.New()
	f.createdRec = rec
	f.records[rec.ID] = rec
	return nil
}

func (f *fakeHistoryRepo) ListByUser(userID uuid.UUID) ([]models.HistoryRecord, error) {
	var out []models.HistoryRecord
	for _, rec := range f.records {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) FindByID(userID, id uuid.UUID) (*models.HistoryRecord, error) {
	rec, ok := f.records[id]
	if !ok || rec.UserID != userID {
		return nil, errors.New("record not found")
	}
	return rec, nil
}

func (f *fakeHistoryRepo) Delete(userID, id uuid.UUID) error {
	delete(f.records, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeHistoryRepo) IsAudioReferenced(path string) (bool, error) {
	return false, nil
}

type fakeObjectStore struct {
	deleteErr   error
	deletedPath string
}

func (f *fakeObjectStore) Delete(ownerID uuid.UUID, path string) error {
	f.deletedPath = path
	return f.deleteErr
}

func (f *fakeObjectStore) SignURL(path string) string {
	return "http://localhost:8080/storage/v1/object/sign/tts-files/" + path + "?token=t&expires=9"
}

func historyRouter(repo *fakeHistoryRepo, store *fakeObjectStore, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.CtxUserID, userID) })
	h := NewHistoryHandler(repo, store)
	r.GET("/api/history", h.List)
	r.POST("/api/history", h.Create)
	r.DELETE("/api/history/:id", h.Delete)
	return r
}

func TestCreateHistoryRecord(t *testing.T) {
	repo := newFakeHistoryRepo()
	userID := uuid.New()
	r := historyRouter(repo, &fakeObjectStore{}, userID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/history",
		strings.NewReader(`{"text_content": "hello", "voice_id": "en-US-Neural2-A"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, repo.createdRec)
	assert.Equal(t, userID, repo.createdRec.UserID)
	assert.Equal(t, "hello", repo.createdRec.TextContent)
}

func TestCreateHistoryRequiresTextAndVoice(t *testing.T) {
	repo := newFakeHistoryRepo()
	r := historyRouter(repo, &fakeObjectStore{}, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/history",
		strings.NewReader(`{"text_content": "hello"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, repo.createdRec)
}

func TestDeleteRemovesBlobThenRecord(t *testing.T) {
	repo := newFakeHistoryRepo()
	store := &fakeObjectStore{}
	userID := uuid.New()
	r := historyRouter(repo, store, userID)

	audioURL := fmt.Sprintf(
		"http://localhost:8080/storage/v1/object/sign/tts-files/%s/17_clip.wav?token=t&expires=9", userID)
	rec := &models.HistoryRecord{UserID: userID, TextContent: "hi", VoiceID: "v", AudioURL: &audioURL}
	require.NoError(t, repo.Create(rec))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/history/"+rec.ID.String(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String()+"/17_clip.wav", store.deletedPath)
	assert.Contains(t, repo.deleted, rec.ID)
}

func TestDeleteProceedsWhenBlobDeleteFails(t *testing.T) {
	repo := newFakeHistoryRepo()
	store := &fakeObjectStore{deleteErr: errors.New("storage down")}
	userID := uuid.New()
	r := historyRouter(repo, store, userID)

	audioURL := fmt.Sprintf(
		"http://localhost:8080/storage/v1/object/sign/tts-files/%s/17_clip.wav?token=t&expires=9", userID)
	rec := &models.HistoryRecord{UserID: userID, TextContent: "hi", VoiceID: "v", AudioURL: &audioURL}
	require.NoError(t, repo.Create(rec))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/history/"+rec.ID.String(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "record deletion must survive a blob failure")
	assert.Contains(t, repo.deleted, rec.ID)

	lw := httptest.NewRecorder()
	lreq := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	r.ServeHTTP(lw, lreq)
	assert.NotContains(t, lw.Body.String(), rec.ID.String())
}

func TestDeleteUnknownRecord(t *testing.T) {
	repo := newFakeHistoryRepo()
	r := historyRouter(repo, &fakeObjectStore{}, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/history/"+uuid.NewString(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteCannotTouchAnotherUsersRecord(t *testing.T) {
	repo := newFakeHistoryRepo()
	owner := uuid.New()
	rec := &models.HistoryRecord{UserID: owner, TextContent: "hi", VoiceID: "v"}
	require.NoError(t, repo.Create(rec))

	r := historyRouter(repo, &fakeObjectStore{}, uuid.New()) // different caller

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/history/"+rec.ID.String(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, repo.deleted)
}
