package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	filestore "github.com/bnema/goalpanel/internal/adapters/secrets/file"
	passstore "github.com/bnema/goalpanel/internal/adapters/secrets/pass"
	"github.com/bnema/goalpanel/internal/ports"
)

const (
	SchemePass = "pass"
	SchemeFile = "file"
)

// Store reads from the primary backend and falls back to the second one.
// References may pin a backend with a "pass:" or "file:" prefix.
type Store struct {
	primary  ports.SecretStore
	fallback ports.SecretStore
}

var _ ports.SecretStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary secret store is nil")
	errNilFallbackStore = errors.New("fallback secret store is nil")
)

func NewStore(primary ports.SecretStore, fallback ports.SecretStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

func NewPassFirstWithFileFallback(passPrefix, fileRoot string) (*Store, error) {
	return NewStore(passstore.NewStore(passPrefix), filestore.NewStore(fileRoot))
}

// ParseRef splits "pass:api_token" into its backend and key. A bare key has
// no scheme.
func ParseRef(ref string) (scheme string, key string) {
	ref = strings.TrimSpace(ref)
	if prefix, rest, ok := strings.Cut(ref, ":"); ok {
		switch prefix {
		case SchemePass, SchemeFile:
			return prefix, rest
		}
	}
	return "", ref
}

func (s *Store) backend(scheme string) ports.SecretStore {
	switch scheme {
	case SchemePass:
		return s.primary
	case SchemeFile:
		return s.fallback
	default:
		return nil
	}
}

func (s *Store) Put(ctx context.Context, ref string, value string) error {
	scheme, key := ParseRef(ref)
	if pinned := s.backend(scheme); pinned != nil {
		return pinned.Put(ctx, key, value)
	}

	err := s.primary.Put(ctx, key, value)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Put(ctx, key, value)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend put failed: %w; fallback backend put failed: %w", err, fallbackErr)
}

func (s *Store) Get(ctx context.Context, ref string) (string, error) {
	scheme, key := ParseRef(ref)
	if pinned := s.backend(scheme); pinned != nil {
		return pinned.Get(ctx, key)
	}

	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}

	return "", fmt.Errorf("primary backend get failed: %w; fallback backend get failed: %w", err, fallbackErr)
}

// Delete removes an unpinned key from both backends so no stale copy is
// left behind for Get to fall back on.
func (s *Store) Delete(ctx context.Context, ref string) error {
	scheme, key := ParseRef(ref)
	if pinned := s.backend(scheme); pinned != nil {
		return pinned.Delete(ctx, key)
	}

	err := s.primary.Delete(ctx, key)
	if shouldSkipFallback(err) {
		return err
	}
	fallbackErr := s.fallback.Delete(ctx, key)

	if err != nil && fallbackErr != nil {
		return fmt.Errorf("primary backend delete failed: %w; fallback backend delete failed: %w", err, fallbackErr)
	}
	return nil
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
