package core

type ctxKey string

const (
	CtxKeyTenantID   ctxKey = ctxKey("tenantId")
	CtxKeyAPIKeyName ctxKey = ctxKey("apiKeyName")
)
