package domain

import "time"

// ClientState is one persisted value of a browser's client-side state,
// addressed by the client id cookie and a key such as "filters" or "auth".
type ClientState struct {
	BaseModel
	ClientID  string     `gorm:"size:64;not null;uniqueIndex:idx_client_states_client_key" json:"client_id"`
	Key       string     `gorm:"column:state_key;size:64;not null;uniqueIndex:idx_client_states_client_key" json:"key"`
	Value     []byte     `gorm:"not null" json:"-"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
}

// Expired reports whether the value has outlived its TTL at now.
func (s *ClientState) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}
