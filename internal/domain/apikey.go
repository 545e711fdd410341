package domain

import "time"

// APIKey authenticates an external trigger producer and binds it to a
// tenant. Only the prefix and a bcrypt hash of the key are stored.
type APIKey struct {
	ID        int64
	TenantID  string
	Name      string
	KeyPrefix string
	KeyHash   string
	Enabled   bool
	Created   time.Time
}
