package clientstate

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/simp-lee/smarttenders/internal/domain"
)

const sessionKeyInfo = "smarttenders client session v1"

// SessionKeeper persists the authenticated session of a browser under
// KeyAuth. The bearer token is sealed with XChaCha20-Poly1305 and bound to the
// client id, so a row copied to another client fails to open.
type SessionKeeper struct {
	store  Store
	aead   cipher.AEAD
	ttl    time.Duration
	logger *slog.Logger
}

// NewSessionKeeper derives the sealing key from secret. ttl bounds how long
// an idle login survives; zero keeps it until logout.
func NewSessionKeeper(store Store, secret string, ttl time.Duration, logger *slog.Logger) (*SessionKeeper, error) {
	if store == nil {
		return nil, errors.New("clientstate: store is nil")
	}
	if len(secret) < 32 {
		return nil, errors.New("clientstate: session secret must be at least 32 characters")
	}
	if logger == nil {
		logger = slog.Default()
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(sessionKeyInfo)), key); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &SessionKeeper{store: store, aead: aead, ttl: ttl, logger: logger}, nil
}

// Load returns the stored session of clientID, or nil when the client is not
// logged in. An entry that fails to open is discarded.
func (k *SessionKeeper) Load(ctx context.Context, clientID string) (*domain.Session, error) {
	sealed, err := k.store.Get(ctx, clientID, KeyAuth)
	if domain.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ns := k.aead.NonceSize()
	if len(sealed) < ns+k.aead.Overhead() {
		return nil, k.discard(ctx, clientID, "sealed session too short")
	}
	plain, err := k.aead.Open(nil, sealed[:ns], sealed[ns:], []byte(clientID))
	if err != nil {
		return nil, k.discard(ctx, clientID, "sealed session failed to open")
	}

	var s domain.Session
	if err := json.Unmarshal(plain, &s); err != nil || !s.Authenticated() {
		return nil, k.discard(ctx, clientID, "sealed session is malformed")
	}
	return &s, nil
}

// Save seals and stores s for clientID.
func (k *SessionKeeper) Save(ctx context.Context, clientID string, s *domain.Session) error {
	if !s.Authenticated() {
		return domain.NewAppError(domain.CodeValidation, "session has no token", nil)
	}
	plain, err := json.Marshal(s)
	if err != nil {
		return domain.NewAppError(domain.CodeInternal, "encode session", err)
	}

	nonce := make([]byte, k.aead.NonceSize(), k.aead.NonceSize()+len(plain)+k.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return domain.NewAppError(domain.CodeInternal, "generate nonce", err)
	}
	sealed := k.aead.Seal(nonce, nonce, plain, []byte(clientID))
	return k.store.Set(ctx, clientID, KeyAuth, sealed, k.ttl)
}

// Destroy forgets the session of clientID.
func (k *SessionKeeper) Destroy(ctx context.Context, clientID string) error {
	return k.store.Delete(ctx, clientID, KeyAuth)
}

func (k *SessionKeeper) discard(ctx context.Context, clientID, reason string) error {
	k.logger.WarnContext(ctx, "discarding stored session", slog.String("reason", reason))
	if err := k.Destroy(ctx, clientID); err != nil && !domain.IsNotFound(err) {
		return err
	}
	return nil
}
