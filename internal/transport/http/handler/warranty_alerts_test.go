package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iams-api/internal/application/warranty"
	"github.com/iams-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWarrantySvc struct{ mock.Mock }

func (m *mockWarrantySvc) List(ctx context.Context, tenantID string, includeAcknowledged bool) ([]domain.WarrantyAlert, error) {
	args := m.Called(ctx, tenantID, includeAcknowledged)
	if as, _ := args.Get(0).([]domain.WarrantyAlert); as != nil {
		return as, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWarrantySvc) Acknowledge(ctx context.Context, alertID, tenantID, userID string) (*domain.WarrantyAlert, error) {
	args := m.Called(ctx, alertID, tenantID, userID)
	if a, _ := args.Get(0).(*domain.WarrantyAlert); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWarrantySvc) Scan(ctx context.Context) (warranty.ScanResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(warranty.ScanResult), args.Error(1)
}

func TestWarrantyAlertList_AllFlag(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockWarrantySvc{}
	svc.On("List", mock.Anything, testTenant, true).Return(nil, nil)
	h := NewWarrantyAlertHandler(svc)

	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.List), rr,
		bearerReq(t, p, http.MethodGet, "/api/warranty-alerts?all=true", "u1", domain.RoleUser, nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
	svc.AssertExpectations(t)
}

func TestWarrantyAlertList_BadFlag(t *testing.T) {
	p := newTestJWTProvider(t)
	h := NewWarrantyAlertHandler(&mockWarrantySvc{})

	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.List), rr,
		bearerReq(t, p, http.MethodGet, "/api/warranty-alerts?all=maybe", "u1", domain.RoleUser, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWarrantyAlertAcknowledge(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockWarrantySvc{}
	by := "u1"
	svc.On("Acknowledge", mock.Anything, "al1", testTenant, "u1").
		Return(&domain.WarrantyAlert{AlertID: "al1", AcknowledgedBy: &by}, nil)
	h := NewWarrantyAlertHandler(svc)

	r := withChiID(bearerReq(t, p, http.MethodPost, "/api/warranty-alerts/al1/acknowledge", "u1", domain.RoleUser, nil), "al1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Acknowledge), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp domain.WarrantyAlert
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotNil(t, resp.AcknowledgedBy)
	assert.Equal(t, "u1", *resp.AcknowledgedBy)
}

func TestWarrantyAlertScan(t *testing.T) {
	svc := &mockWarrantySvc{}
	svc.On("Scan", mock.Anything).Return(warranty.ScanResult{Scanned: 4, Created: 1}, nil).Once()
	svc.On("Scan", mock.Anything).Return(warranty.ScanResult{}, errors.New("throttled")).Once()
	h := NewWarrantyAlertHandler(svc)

	rr := httptest.NewRecorder()
	h.Scan(rr, httptest.NewRequest(http.MethodPost, "/api/warranty-alerts/scan", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"scanned":4,"created":1,"updated":0,"promoted":0}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.Scan(rr, httptest.NewRequest(http.MethodPost, "/api/warranty-alerts/scan", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
