package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"time"

	"github.com/campuslink/campuslink-backend/pkg/config"
	pkgerrors "github.com/campuslink/campuslink-backend/pkg/errors"
	"github.com/campuslink/campuslink-backend/pkg/redis"
)

// KV is the key-value surface the store needs from Redis.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Store issues and verifies short-lived one-time codes keyed by destination,
// typically an email address. Codes expire on their own through the TTL.
type Store struct {
	kv  KV
	cfg config.OTPConfig
}

// NewStore wires the one-time-code dependencies.
func NewStore(kv KV, cfg config.OTPConfig) (*Store, error) {
	if kv == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "key-value store required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Length <= 0 {
		cfg.Length = 6
	}
	return &Store{kv: kv, cfg: cfg}, nil
}

// Generate mints a fresh numeric code for the destination, replacing any
// outstanding one, and stores it under the configured TTL.
func (s *Store) Generate(ctx context.Context, destination string) (string, error) {
	if destination == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "destination required")
	}

	code, err := randomCode(s.cfg.Length)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
	}
	if err := s.kv.Set(ctx, redis.OTPKey(destination), code, s.cfg.TTL); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store code")
	}
	return code, nil
}

// Verify reports whether the code matches the outstanding one for the
// destination. When consume is true a match also deletes the stored code so
// it cannot be replayed.
func (s *Store) Verify(ctx context.Context, destination, code string, consume bool) (bool, error) {
	if destination == "" || code == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "destination and code required")
	}

	key := redis.OTPKey(destination)
	stored, found, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load code")
	}
	if !found {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false, nil
	}

	if consume {
		if err := s.kv.Del(ctx, key); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume code")
		}
	}
	return true, nil
}

// Has reports whether an unexpired code exists for the destination.
func (s *Store) Has(ctx context.Context, destination string) (bool, error) {
	_, found, err := s.kv.Get(ctx, redis.OTPKey(destination))
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load code")
	}
	return found, nil
}

// RemainingTTL returns how long the outstanding code stays valid, zero when
// none exists.
func (s *Store) RemainingTTL(ctx context.Context, destination string) (time.Duration, error) {
	ttl, err := s.kv.TTL(ctx, redis.OTPKey(destination))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load code ttl")
	}
	return ttl, nil
}

func randomCode(length int) (string, error) {
	max := big.NewInt(10)
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
