package controllers

import (
	"context"
	"net/http"

	"github.com/careline-io/careline/internal/domain"
	"github.com/careline-io/careline/pkg/careline/core"
)

// APIKeyRepo resolves a plaintext API key to its tenant record.
type APIKeyRepo interface {
	FindTenantByKey(key string) (*domain.APIKey, error)
}

type AuthController struct {
	APIKeyRepo APIKeyRepo
}

// RequireTenant authenticates the X-API-Key header and puts the resolved
// tenant id on the request context. Every API route runs behind it, which
// is what keeps all downstream queries tenant-scoped.
func (wc *AuthController) RequireTenant(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		k, err := wc.APIKeyRepo.FindTenantByKey(apiKey)
		if err != nil || k == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), core.CtxKeyTenantID, k.TenantID)
		ctx = context.WithValue(ctx, core.CtxKeyAPIKeyName, k.Name)
		next(w, r.WithContext(ctx))
	}
}

// TenantFromContext returns the tenant id set by RequireTenant, or "".
func TenantFromContext(ctx context.Context) string {
	tenantID, _ := ctx.Value(core.CtxKeyTenantID).(string)
	return tenantID
}
