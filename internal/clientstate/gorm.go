package clientstate

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/simp-lee/smarttenders/internal/domain"
)

// gormStore implements Store on the client_states table.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore returns a Store backed by the given GORM database. The
// domain.ClientState table must already be migrated.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, now: time.Now}
}

func (s *gormStore) Get(ctx context.Context, clientID, key string) ([]byte, error) {
	if err := validKey(clientID, key); err != nil {
		return nil, err
	}
	var row domain.ClientState
	err := s.db.WithContext(ctx).
		Where("client_id = ? AND state_key = ?", clientID, key).
		First(&row).Error
	if err != nil {
		return nil, mapError(err)
	}
	if row.Expired(s.now()) {
		return nil, domain.ErrNotFound
	}
	return row.Value, nil
}

// Set writes the value with a single INSERT ... ON CONFLICT statement.
// Concurrent requests of one browser race on the same (client_id, state_key)
// row; the last write wins and none of them fail.
func (s *gormStore) Set(ctx context.Context, clientID, key string, value []byte, ttl time.Duration) error {
	if err := validKey(clientID, key); err != nil {
		return err
	}
	row := domain.ClientState{
		ClientID: clientID,
		Key:      key,
		Value:    value,
	}
	if ttl > 0 {
		t := s.now().Add(ttl)
		row.ExpiresAt = &t
	}

	return mapError(s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}, {Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&row).Error)
}

func (s *gormStore) Delete(ctx context.Context, clientID, key string) error {
	if err := validKey(clientID, key); err != nil {
		return err
	}
	return mapError(s.db.WithContext(ctx).
		Where("client_id = ? AND state_key = ?", clientID, key).
		Delete(&domain.ClientState{}).Error)
}

func (s *gormStore) Clear(ctx context.Context, clientID string) error {
	if clientID == "" {
		return domain.NewAppError(domain.CodeValidation, "client id is required", nil)
	}
	return mapError(s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Delete(&domain.ClientState{}).Error)
}

// PurgeExpired deletes every expired row and reports how many were removed.
func PurgeExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&domain.ClientState{})
	if res.Error != nil {
		return 0, mapError(res.Error)
	}
	return res.RowsAffected, nil
}

// mapError converts GORM errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, "client state already exists", err)
	}
	return domain.NewAppError(domain.CodeInternal, "client state storage error", err)
}

// isDuplicateKeyError detects unique constraint violations by message, since
// the pure-Go SQLite driver does not translate them to gorm.ErrDuplicatedKey.
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
