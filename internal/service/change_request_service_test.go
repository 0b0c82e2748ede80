package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biehatieha/timetable-api/internal/dto"
	"github.com/biehatieha/timetable-api/internal/models"
	appErrors "github.com/biehatieha/timetable-api/pkg/errors"
)

type changeRequestStoreStub struct {
	requests map[string]*models.TimetableChangeRequest
	updated  *models.TimetableChangeRequest
	deleted  string
}

func newChangeRequestStoreStub(requests ...*models.TimetableChangeRequest) *changeRequestStoreStub {
	stub := &changeRequestStoreStub{requests: map[string]*models.TimetableChangeRequest{}}
	for _, cr := range requests {
		stub.requests[cr.ID] = cr
	}
	return stub
}

func (m *changeRequestStoreStub) Create(ctx context.Context, cr *models.TimetableChangeRequest) error {
	if cr.ID == "" {
		cr.ID = "cr-new"
	}
	m.requests[cr.ID] = cr
	return nil
}

func (m *changeRequestStoreStub) FindByID(ctx context.Context, id string) (*models.TimetableChangeRequest, error) {
	cr, ok := m.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cr, nil
}

func (m *changeRequestStoreStub) ListAll(ctx context.Context) ([]models.TimetableChangeRequest, error) {
	var out []models.TimetableChangeRequest
	for _, cr := range m.requests {
		out = append(out, *cr)
	}
	return out, nil
}

func (m *changeRequestStoreStub) ListByUser(ctx context.Context, userID string) ([]models.TimetableChangeRequest, error) {
	var out []models.TimetableChangeRequest
	for _, cr := range m.requests {
		if cr.UserID == userID {
			out = append(out, *cr)
		}
	}
	return out, nil
}

func (m *changeRequestStoreStub) UpdateResolution(ctx context.Context, cr *models.TimetableChangeRequest) error {
	m.updated = cr
	m.requests[cr.ID] = cr
	return nil
}

func (m *changeRequestStoreStub) Delete(ctx context.Context, id string) error {
	m.deleted = id
	delete(m.requests, id)
	return nil
}

type timetableRowReaderStub struct {
	rows map[string]*models.GeneratedTimetable
}

func (m *timetableRowReaderStub) FindByID(ctx context.Context, id string) (*models.GeneratedTimetable, error) {
	tt, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return tt, nil
}

var (
	changeRequestOwner    = &models.JWTClaims{UserID: "user-1", Email: "owner@example.com"}
	changeRequestStranger = &models.JWTClaims{UserID: "user-2", Email: "other@example.com"}
	changeRequestAdmin    = &models.JWTClaims{UserID: "admin-1", Email: "admin@example.com", Admin: true}
)

func newChangeRequestService(store *changeRequestStoreStub) *ChangeRequestService {
	timetables := &timetableRowReaderStub{rows: map[string]*models.GeneratedTimetable{
		"tt-1": {ID: "tt-1", UserID: "user-1", Active: true},
	}}
	return NewChangeRequestService(store, timetables, nil, nil)
}

func TestChangeRequestServiceCreate(t *testing.T) {
	store := newChangeRequestStoreStub()
	svc := newChangeRequestService(store)

	cr, err := svc.Create(context.Background(), changeRequestOwner, dto.CreateChangeRequestRequest{
		GeneratedTimetableID: "tt-1",
		Message:              "please move CS101 off Friday",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ChangeRequestPending, cr.Status)
	assert.Equal(t, "user-1", cr.UserID)
	assert.Nil(t, cr.AdminResponse)
	assert.Contains(t, store.requests, cr.ID)
}

func TestChangeRequestServiceCreateUnknownTimetable(t *testing.T) {
	svc := newChangeRequestService(newChangeRequestStoreStub())

	_, err := svc.Create(context.Background(), changeRequestOwner, dto.CreateChangeRequestRequest{
		GeneratedTimetableID: "tt-missing",
		Message:              "please revise",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestChangeRequestServiceCreateRequiresMessage(t *testing.T) {
	svc := newChangeRequestService(newChangeRequestStoreStub())

	_, err := svc.Create(context.Background(), changeRequestOwner, dto.CreateChangeRequestRequest{
		GeneratedTimetableID: "tt-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestChangeRequestServiceListAdminOnly(t *testing.T) {
	store := newChangeRequestStoreStub(
		&models.TimetableChangeRequest{ID: "cr-1", UserID: "user-1", GeneratedTimetableID: "tt-1"},
		&models.TimetableChangeRequest{ID: "cr-2", UserID: "user-2", GeneratedTimetableID: "tt-1"},
	)
	svc := newChangeRequestService(store)

	_, err := svc.List(context.Background(), changeRequestOwner)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	requests, err := svc.List(context.Background(), changeRequestAdmin)
	require.NoError(t, err)
	assert.Len(t, requests, 2)
}

func TestChangeRequestServiceMineFiltersByUser(t *testing.T) {
	store := newChangeRequestStoreStub(
		&models.TimetableChangeRequest{ID: "cr-1", UserID: "user-1", GeneratedTimetableID: "tt-1"},
		&models.TimetableChangeRequest{ID: "cr-2", UserID: "user-2", GeneratedTimetableID: "tt-1"},
	)
	svc := newChangeRequestService(store)

	requests, err := svc.Mine(context.Background(), changeRequestOwner)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "cr-1", requests[0].ID)
}

func TestChangeRequestServiceGetAuthorization(t *testing.T) {
	store := newChangeRequestStoreStub(
		&models.TimetableChangeRequest{ID: "cr-1", UserID: "user-1", GeneratedTimetableID: "tt-1"},
	)
	svc := newChangeRequestService(store)

	cr, err := svc.Get(context.Background(), changeRequestOwner, "cr-1")
	require.NoError(t, err)
	assert.Equal(t, "cr-1", cr.ID)

	_, err = svc.Get(context.Background(), changeRequestAdmin, "cr-1")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), changeRequestStranger, "cr-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), changeRequestAdmin, "cr-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestChangeRequestServiceResolve(t *testing.T) {
	store := newChangeRequestStoreStub(
		&models.TimetableChangeRequest{ID: "cr-1", UserID: "user-1", GeneratedTimetableID: "tt-1", Status: models.ChangeRequestPending},
	)
	svc := newChangeRequestService(store)

	note := "regenerated with Friday excluded"
	cr, err := svc.Resolve(context.Background(), changeRequestAdmin, "cr-1", dto.ResolveChangeRequestRequest{
		Status:        models.ChangeRequestApproved,
		AdminResponse: &note,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ChangeRequestApproved, cr.Status)
	require.NotNil(t, cr.AdminResponse)
	assert.Equal(t, note, *cr.AdminResponse)
	require.NotNil(t, store.updated)
}

func TestChangeRequestServiceResolveRejectsNonAdmin(t *testing.T) {
	store := newChangeRequestStoreStub(
		&models.TimetableChangeRequest{ID: "cr-1", UserID: "user-1", GeneratedTimetableID: "tt-1", Status: models.ChangeRequestPending},
	)
	svc := newChangeRequestService(store)

	_, err := svc.Resolve(context.Background(), changeRequestOwner, "cr-1", dto.ResolveChangeRequestRequest{
		Status: models.ChangeRequestApproved,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestChangeRequestServiceResolveRejectsUnknownStatus(t *testing.T) {
	store := newChangeRequestStoreStub(
		&models.TimetableChangeRequest{ID: "cr-1", UserID: "user-1", GeneratedTimetableID: "tt-1", Status: models.ChangeRequestPending},
	)
	svc := newChangeRequestService(store)

	_, err := svc.Resolve(context.Background(), changeRequestAdmin, "cr-1", dto.ResolveChangeRequestRequest{
		Status: "deferred",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestChangeRequestServiceDeleteAdminOnly(t *testing.T) {
	store := newChangeRequestStoreStub(
		&models.TimetableChangeRequest{ID: "cr-1", UserID: "user-1", GeneratedTimetableID: "tt-1"},
	)
	svc := newChangeRequestService(store)

	err := svc.Delete(context.Background(), changeRequestOwner, "cr-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), changeRequestAdmin, "cr-1"))
	assert.Equal(t, "cr-1", store.deleted)
}
