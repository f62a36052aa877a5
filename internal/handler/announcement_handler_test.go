package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/housing-board-api/internal/dto"
	"github.com/noah-isme/housing-board-api/internal/models"
	appErrors "github.com/noah-isme/housing-board-api/pkg/errors"
)

type announcementServiceMock struct {
	created    *models.Announcement
	createErr  error
	lastCreate dto.CreateAnnouncementRequest
	createCall bool
	items      []models.AnnouncementWithOrganizer
	lastFilter models.AnnouncementFilter
	item       *models.AnnouncementWithOrganizer
	getErr     error
}

func (m *announcementServiceMock) Create(ctx context.Context, req dto.CreateAnnouncementRequest) (*models.Announcement, error) {
	m.createCall = true
	m.lastCreate = req
	return m.created, m.createErr
}

func (m *announcementServiceMock) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.AnnouncementWithOrganizer, error) {
	m.lastFilter = filter
	return m.items, nil
}

func (m *announcementServiceMock) Get(ctx context.Context, id int64) (*models.AnnouncementWithOrganizer, error) {
	return m.item, m.getErr
}

type readTrackingMock struct {
	marked   []int64
	markErr  error
	readers  []string
	lastBody dto.MarkReadRequest
}

func (m *readTrackingMock) MarkRead(ctx context.Context, announcementID int64, req dto.MarkReadRequest) error {
	m.marked = append(m.marked, announcementID)
	m.lastBody = req
	return m.markErr
}

func (m *readTrackingMock) Readers(ctx context.Context, announcementID int64) ([]string, error) {
	return m.readers, nil
}

func newTestContext(method, target, body string, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = params
	return c, w
}

func TestAnnouncementHandlerCreate(t *testing.T) {
	svc := &announcementServiceMock{created: &models.Announcement{ID: 12}}
	handler := NewAnnouncementHandler(svc, &readTrackingMock{})

	c, w := newTestContext(http.MethodPost, "/api/announcements", `{"studentId":1,"title":"Housewarming","datetime":"2030-01-01T20:00","description":"BYO"}`)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"message":"Feestje aangekondigd!","id":12}`, w.Body.String())
	assert.Equal(t, "Housewarming", svc.lastCreate.Title)
	assert.Equal(t, int64(1), svc.lastCreate.StudentID)
}

func TestAnnouncementHandlerCreateMalformedBody(t *testing.T) {
	svc := &announcementServiceMock{}
	handler := NewAnnouncementHandler(svc, &readTrackingMock{})

	c, w := newTestContext(http.MethodPost, "/api/announcements", `{"studentId":`)
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, svc.createCall)
}

func TestAnnouncementHandlerCreateStoreFailureCarriesCause(t *testing.T) {
	svc := &announcementServiceMock{createErr: appErrors.Store(errors.New("disk full"), "failed to create announcement")}
	handler := NewAnnouncementHandler(svc, &readTrackingMock{})

	c, w := newTestContext(http.MethodPost, "/api/announcements", `{"studentId":1,"title":"t","datetime":"2030-01-01T20:00","description":"d"}`)
	handler.Create(c)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "disk full")
	assert.Contains(t, w.Body.String(), `"code":"STORE_ERROR"`)
}

func TestAnnouncementHandlerListFilter(t *testing.T) {
	svc := &announcementServiceMock{items: []models.AnnouncementWithOrganizer{}}
	handler := NewAnnouncementHandler(svc, &readTrackingMock{})

	c, w := newTestContext(http.MethodGet, "/api/announcements?filter=future", "")
	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.AnnouncementFilterFutureOnly, svc.lastFilter)
	assert.JSONEq(t, `[]`, w.Body.String())

	c, _ = newTestContext(http.MethodGet, "/api/announcements?filter=bogus", "")
	handler.List(c)
	assert.Equal(t, models.AnnouncementFilterAll, svc.lastFilter)
}

func TestAnnouncementHandlerGetNotFound(t *testing.T) {
	svc := &announcementServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "announcement not found")}
	handler := NewAnnouncementHandler(svc, &readTrackingMock{})

	c, w := newTestContext(http.MethodGet, "/api/announcements/9", "", gin.Param{Key: "id", Value: "9"})
	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnnouncementHandlerMarkRead(t *testing.T) {
	reads := &readTrackingMock{}
	handler := NewAnnouncementHandler(&announcementServiceMock{}, reads)

	c, w := newTestContext(http.MethodPost, "/api/announcements/5/read", `{"studentId":2}`, gin.Param{Key: "id", Value: "5"})
	handler.MarkRead(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Marked as read"}`, w.Body.String())
	assert.Equal(t, []int64{5}, reads.marked)
	assert.Equal(t, int64(2), reads.lastBody.StudentID)
}

func TestAnnouncementHandlerRejectsBadID(t *testing.T) {
	reads := &readTrackingMock{}
	handler := NewAnnouncementHandler(&announcementServiceMock{}, reads)

	for _, raw := range []string{"abc", "0", "-3"} {
		c, w := newTestContext(http.MethodPost, "/api/announcements/"+raw+"/read", `{"studentId":2}`, gin.Param{Key: "id", Value: raw})
		handler.MarkRead(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
	}
	assert.Empty(t, reads.marked)
}

func TestAnnouncementHandlerReaders(t *testing.T) {
	handler := NewAnnouncementHandler(&announcementServiceMock{}, &readTrackingMock{readers: []string{"Gio", "Sasha"}})

	c, w := newTestContext(http.MethodGet, "/api/announcements/5/readers", "", gin.Param{Key: "id", Value: "5"})
	handler.Readers(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["Gio","Sasha"]`, w.Body.String())
}
