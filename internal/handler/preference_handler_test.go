package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biehatieha/timetable-api/internal/dto"
	"github.com/biehatieha/timetable-api/internal/middleware"
	"github.com/biehatieha/timetable-api/internal/models"
	appErrors "github.com/biehatieha/timetable-api/pkg/errors"
	"github.com/biehatieha/timetable-api/pkg/response"
)

type preferenceServiceMock struct {
	options   *dto.PreferenceOptions
	pref      *models.TimetablePreference
	storeErr  error
	lastStore dto.StorePreferenceRequest
}

func (m *preferenceServiceMock) Options(ctx context.Context) (*dto.PreferenceOptions, error) {
	return m.options, nil
}

func (m *preferenceServiceMock) Get(ctx context.Context, userID string) (*models.TimetablePreference, error) {
	if m.pref == nil {
		return nil, appErrors.ErrNotFound
	}
	return m.pref, nil
}

func (m *preferenceServiceMock) Store(ctx context.Context, userID string, req dto.StorePreferenceRequest) (*models.TimetablePreference, error) {
	m.lastStore = req
	if m.storeErr != nil {
		return nil, m.storeErr
	}
	return m.pref, nil
}

func newPreferenceTestContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})
	return c, w
}

func TestPreferenceHandlerStore(t *testing.T) {
	svc := &preferenceServiceMock{pref: &models.TimetablePreference{
		ID:          "pref-1",
		UserID:      "user-1",
		Preferences: types.JSONText(`{"mode":1}`),
	}}
	h := NewPreferenceHandler(svc)

	body, _ := json.Marshal(dto.StorePreferenceRequest{Preferences: dto.PreferencePayload{
		Subjects: []string{"sub-1"}, StartTime: "08:00", EndTime: "18:00", EnforceTies: "yes", Mode: 1,
	}})
	c, w := newPreferenceTestContext(t, http.MethodPut, "/preferences", body)

	h.Store(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"sub-1"}, svc.lastStore.Preferences.Subjects)
}

func TestPreferenceHandlerStoreInvalidBody(t *testing.T) {
	h := NewPreferenceHandler(&preferenceServiceMock{})

	c, w := newPreferenceTestContext(t, http.MethodPut, "/preferences", []byte(`{"preferences":`))

	h.Store(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreferenceHandlerStoreRejectsBadPayload(t *testing.T) {
	svc := &preferenceServiceMock{storeErr: appErrors.Clone(appErrors.ErrInvalidPreference, `unknown subject "sub-404"`)}
	h := NewPreferenceHandler(svc)

	body, _ := json.Marshal(dto.StorePreferenceRequest{Preferences: dto.PreferencePayload{
		Subjects: []string{"sub-404"}, StartTime: "08:00", EndTime: "18:00", EnforceTies: "yes", Mode: 1,
	}})
	c, w := newPreferenceTestContext(t, http.MethodPut, "/preferences", body)

	h.Store(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrInvalidPreference.Code, envelope.Error.Code)
}

func TestPreferenceHandlerGetRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/preferences", nil)

	h := NewPreferenceHandler(&preferenceServiceMock{})
	h.Get(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPreferenceHandlerOptions(t *testing.T) {
	svc := &preferenceServiceMock{options: &dto.PreferenceOptions{
		Days: []models.Day{{ID: "day-1", Name: "Monday"}},
	}}
	h := NewPreferenceHandler(svc)

	c, w := newPreferenceTestContext(t, http.MethodGet, "/preferences/options", nil)

	h.Options(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Monday")
}
