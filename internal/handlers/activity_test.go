package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"inactivity-service/internal/inactivity"
	"inactivity-service/internal/mocks"
	"inactivity-service/internal/models"
)

func setupActivityRouter(handler *ActivityHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/chats/:chat_id/config", handler.GetConfig)
	r.PUT("/chats/:chat_id/config/inactive-days", handler.SetInactiveDays)
	r.PUT("/chats/:chat_id/config/new-user-days", handler.SetNewUserDays)
	r.POST("/chats/:chat_id/scan", handler.RunScan)
	r.GET("/chats/:chat_id/activity", handler.ListActivity)
	return r
}

func TestGetConfigDefaults(t *testing.T) {
	tracker := new(mocks.TrackerMock)
	handler := NewActivityHandler(tracker, nil, nil, nil)
	router := setupActivityRouter(handler)

	tracker.On("GetConfig", mock.Anything, int64(9)).
		Return(models.ChatConfig{ChatID: 9, InactiveDays: 14, NewUserDays: 3}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats/9/config", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var cfg models.ChatConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	require.Equal(t, 14, cfg.InactiveDays)
	require.Equal(t, 3, cfg.NewUserDays)
	tracker.AssertExpectations(t)
}

func TestGetConfigInvalidChatID(t *testing.T) {
	handler := NewActivityHandler(new(mocks.TrackerMock), nil, nil, nil)
	router := setupActivityRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/chats/bad/config", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetInactiveDaysSuccess(t *testing.T) {
	tracker := new(mocks.TrackerMock)
	handler := NewActivityHandler(tracker, nil, nil, nil)
	router := setupActivityRouter(handler)

	tracker.On("SetInactiveDays", mock.Anything, int64(9), "5").Return(5, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/chats/9/config/inactive-days", bytes.NewBufferString(`{"days":5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	tracker.AssertExpectations(t)
}

func TestSetInactiveDaysRejected(t *testing.T) {
	tracker := new(mocks.TrackerMock)
	handler := NewActivityHandler(tracker, nil, nil, nil)
	router := setupActivityRouter(handler)

	tracker.On("SetInactiveDays", mock.Anything, int64(9), "0").
		Return(0, fmt.Errorf("%w: must be at least 1", inactivity.ErrInvalidDays)).Once()

	req := httptest.NewRequest(http.MethodPut, "/chats/9/config/inactive-days", bytes.NewBufferString(`{"days":0}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	tracker.AssertExpectations(t)
}

func TestSetInactiveDaysInvalidBody(t *testing.T) {
	handler := NewActivityHandler(new(mocks.TrackerMock), nil, nil, nil)
	router := setupActivityRouter(handler)

	req := httptest.NewRequest(http.MethodPut, "/chats/9/config/inactive-days", bytes.NewBufferString(`{"days":"soon"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetNewUserDaysSuccess(t *testing.T) {
	tracker := new(mocks.TrackerMock)
	handler := NewActivityHandler(tracker, nil, nil, nil)
	router := setupActivityRouter(handler)

	tracker.On("SetNewUserDays", mock.Anything, int64(9), "2").Return(2, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/chats/9/config/new-user-days", bytes.NewBufferString(`{"days":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	tracker.AssertExpectations(t)
}

func TestRunScanSuccessPublishesResult(t *testing.T) {
	tracker := new(mocks.TrackerMock)
	publisher := new(mocks.PublisherMock)
	handler := NewActivityHandler(tracker, nil, publisher, nil)
	router := setupActivityRouter(handler)

	result := models.ScanResult{ChatID: 9, InactiveDays: 14, NewUserDays: 3, Flagged: []int64{2}, Count: 1}
	tracker.On("RunScan", mock.Anything, int64(9)).Return(result, nil).Once()
	publisher.On("Publish", mock.Anything, "scans.completed", result).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/9/scan", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body models.ScanResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []int64{2}, body.Flagged)
	require.Equal(t, 1, body.Count)

	tracker.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestRunScanRosterUnavailable(t *testing.T) {
	tracker := new(mocks.TrackerMock)
	publisher := new(mocks.PublisherMock)
	handler := NewActivityHandler(tracker, nil, publisher, nil)
	router := setupActivityRouter(handler)

	tracker.On("RunScan", mock.Anything, int64(9)).
		Return(models.ScanResult{}, fmt.Errorf("%w: telegram unreachable", inactivity.ErrRosterUnavailable)).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/9/scan", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// a failed scan is an explicit error, never an empty result
	require.Equal(t, http.StatusBadGateway, rec.Code)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	tracker.AssertExpectations(t)
}

func TestListActivitySuccess(t *testing.T) {
	tracker := new(mocks.TrackerMock)
	handler := NewActivityHandler(tracker, nil, nil, nil)
	router := setupActivityRouter(handler)

	tracker.On("ListActivity", mock.Anything, int64(9)).
		Return([]models.ActivityRecord{{UserID: 2, ChatID: 9}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats/9/activity", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	tracker.AssertExpectations(t)
}
