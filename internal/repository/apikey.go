package repository

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/careline-io/careline/internal/domain"
	"github.com/careline-io/careline/pkg/careline/core"
)

// APIKeyRepository authenticates trigger producers. Keys are stored as an
// indexed prefix plus a bcrypt hash; the plaintext key exists only in the
// create response.
type APIKeyRepository struct {
	db    *sql.DB
	clock core.Clock
}

var ErrAPIKeyNotFound = errors.New("api key not found")

const apiKeyPrefixLen = 8

func NewAPIKeyRepository(db *sql.DB, clock core.Clock) *APIKeyRepository {
	return &APIKeyRepository{db: db, clock: clock}
}

// Create mints a new key for a tenant and returns the plaintext once.
func (r *APIKeyRepository) Create(tenantID string, name string) (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	key := "cl_" + hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	query := `
		INSERT INTO api_keys (tenant_id, name, key_prefix, key_hash, enabled, created)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `, ` + placeholder(5) + `, ` + placeholder(6) + `)
	`
	_, err = r.db.Exec(query, tenantID, name, key[:len("cl_")+apiKeyPrefixLen], string(hash), true, formatDateInDatabase(r.clock.Now()))
	if err != nil {
		return "", err
	}
	return key, nil
}

// FindTenantByKey resolves a plaintext key to its APIKey record, or
// ErrAPIKeyNotFound when no enabled key matches.
func (r *APIKeyRepository) FindTenantByKey(key string) (*domain.APIKey, error) {
	if len(key) < len("cl_")+apiKeyPrefixLen {
		return nil, ErrAPIKeyNotFound
	}
	query := `
		SELECT id, tenant_id, name, key_prefix, key_hash, enabled, created
		FROM api_keys
		WHERE key_prefix = ` + placeholder(1) + ` AND enabled = ` + placeholder(2) + `
	`
	rows, err := r.db.Query(query, key[:len("cl_")+apiKeyPrefixLen], true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var k domain.APIKey
		if err := rows.Scan(
			&k.ID,
			&k.TenantID,
			&k.Name,
			&k.KeyPrefix,
			&k.KeyHash,
			&k.Enabled,
			&k.Created,
		); err != nil {
			return nil, err
		}
		if bcrypt.CompareHashAndPassword([]byte(k.KeyHash), []byte(key)) == nil {
			return &k, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, ErrAPIKeyNotFound
}
