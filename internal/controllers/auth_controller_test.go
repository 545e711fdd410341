package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/careline-io/careline/internal/domain"
	"github.com/stretchr/testify/assert"
)

type mockAPIKeyRepo struct {
	FindTenantByKeyFunc func(key string) (*domain.APIKey, error)
}

func (m *mockAPIKeyRepo) FindTenantByKey(key string) (*domain.APIKey, error) {
	if m.FindTenantByKeyFunc != nil {
		return m.FindTenantByKeyFunc(key)
	}
	return nil, errors.New("unknown key")
}

func validKeyRepo(tenantID string) *mockAPIKeyRepo {
	return &mockAPIKeyRepo{
		FindTenantByKeyFunc: func(key string) (*domain.APIKey, error) {
			if key == "cl_validkey" {
				return &domain.APIKey{TenantID: tenantID, Name: "test-key", Enabled: true}, nil
			}
			return nil, errors.New("unknown key")
		},
	}
}

func TestRequireTenant_MissingKey(t *testing.T) {
	ac := AuthController{APIKeyRepo: validKeyRepo("tenant-a")}
	handler := ac.RequireTenant(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a key")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/triggers", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireTenant_InvalidKey(t *testing.T) {
	ac := AuthController{APIKeyRepo: validKeyRepo("tenant-a")}
	handler := ac.RequireTenant(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run with a bad key")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/triggers", nil)
	req.Header.Set("X-API-Key", "cl_wrong")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireTenant_ValidKeySetsTenant(t *testing.T) {
	ac := AuthController{APIKeyRepo: validKeyRepo("tenant-a")}
	var seenTenant string
	handler := ac.RequireTenant(func(w http.ResponseWriter, r *http.Request) {
		seenTenant = TenantFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/triggers", nil)
	req.Header.Set("X-API-Key", "cl_validkey")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tenant-a", seenTenant)
}
