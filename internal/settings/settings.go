// Package settings exposes host configuration values (feature flags and the
// public base URL) backed by the persistent key-value store with config defaults.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bobmcallan/apibridge/internal/common"
	"github.com/bobmcallan/apibridge/internal/interfaces"
)

// BaseURLKey overrides the configured API base URL when present in the store.
const BaseURLKey = "web/unsecure/base_url"

// ErrNotFound is returned when a key has neither a stored nor a default value.
var ErrNotFound = errors.New("setting not found")

// ErrReadOnly is returned by Set when no persistent store is attached.
var ErrReadOnly = errors.New("settings store is read-only")

// Store resolves host settings. Stored values take precedence over defaults.
type Store struct {
	kv       interfaces.KeyValueStorage
	defaults map[string]string
	baseURL  string
	logger   *common.Logger
}

// NewStore creates a settings store. kv may be nil, in which case only defaults are served.
func NewStore(kv interfaces.KeyValueStorage, defaults map[string]string, baseURL string, logger *common.Logger) *Store {
	d := make(map[string]string, len(defaults))
	for k, v := range defaults {
		d[k] = v
	}
	return &Store{kv: kv, defaults: d, baseURL: baseURL, logger: logger}
}

// Value returns the stored value for key, then the default.
func (s *Store) Value(ctx context.Context, key string) (string, error) {
	if s.kv != nil {
		v, err := s.kv.Get(ctx, key)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, interfaces.ErrNotFound) {
			return "", fmt.Errorf("read setting %s: %w", key, err)
		}
	}
	if v, ok := s.defaults[key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, key)
}

// IsEnabled reports whether the flag at key holds a truthy value.
// Missing keys and read failures count as disabled.
func (s *Store) IsEnabled(ctx context.Context, key string) bool {
	v, err := s.Value(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn().Str("key", key).Err(err).Msg("flag read failed, treating as disabled")
		}
		return false
	}
	return Truthy(v)
}

// Set persists a value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if s.kv == nil {
		return ErrReadOnly
	}
	return s.kv.Set(ctx, key, value)
}

// Unset removes a stored value so the default applies again.
func (s *Store) Unset(ctx context.Context, key string) error {
	if s.kv == nil {
		return ErrReadOnly
	}
	return s.kv.Delete(ctx, key)
}

// BaseURL returns the host's public address: the stored override or the configured value.
func (s *Store) BaseURL(ctx context.Context) string {
	if s.kv != nil {
		if v, err := s.kv.Get(ctx, BaseURLKey); err == nil && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return s.baseURL
}

// All returns the effective settings: defaults overlaid with stored values.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(s.defaults))
	for k, v := range s.defaults {
		out[k] = v
	}
	if s.kv == nil {
		return out, nil
	}
	stored, err := s.kv.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for k, v := range stored {
		out[k] = v
	}
	return out, nil
}

// Truthy interprets common flag spellings.
func Truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
