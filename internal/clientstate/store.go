// Package clientstate persists small per-browser values on the server, the
// way a single-page app would keep them in local storage. Values are a
// best-effort mirror: a missing or expired entry reads as domain.ErrNotFound
// and callers fall back to defaults.
package clientstate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/simp-lee/smarttenders/internal/domain"
)

// Well-known keys.
const (
	KeyFilters      = "filters"
	KeyAuth         = "auth"
	KeyRegistration = "registration"
)

// Store keeps opaque values per (client id, key). A ttl of zero means the
// value never expires.
type Store interface {
	Get(ctx context.Context, clientID, key string) ([]byte, error)
	Set(ctx context.Context, clientID, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, clientID, key string) error
	Clear(ctx context.Context, clientID string) error
}

// GetJSON loads key and decodes it into out.
func GetJSON(ctx context.Context, s Store, clientID, key string, out any) error {
	b, err := s.Get(ctx, clientID, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return domain.NewAppError(domain.CodeInternal, "decode client state", err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, clientID, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return domain.NewAppError(domain.CodeInternal, "encode client state", err)
	}
	return s.Set(ctx, clientID, key, b, ttl)
}

func validKey(clientID, key string) error {
	if clientID == "" || key == "" {
		return domain.NewAppError(domain.CodeValidation, "client id and key are required", nil)
	}
	return nil
}
