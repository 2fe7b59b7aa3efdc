// Package apikey stores the learner's own model API key. When a secret is
// configured the key is sealed with NaCl secretbox before it is persisted.
package apikey

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/pavelanni/examprep/internal/store"
)

// ErrEmpty is returned by Save for a blank key.
var ErrEmpty = errors.New("api key must not be empty")

const sealedPrefix = "sealed:"

// Store keeps the optional API key record.
type Store struct {
	backend store.Backend
	key     *[32]byte // nil means the value is stored as-is

	mu sync.Mutex
}

// New creates a key store. An empty secret disables sealing.
func New(b store.Backend, secret string) *Store {
	s := &Store{backend: b}
	if secret != "" {
		k := sha256.Sum256([]byte(secret))
		s.key = &k
	}
	return s
}

// Get returns the stored key. ok is false when no usable key is stored.
func (s *Store) Get(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.backend.Get(ctx, store.KeyAPIKey)
	if err != nil {
		slog.Warn("read api key", "error", err)
		return "", false
	}
	if !ok || raw == "" {
		return "", false
	}
	v, err := s.open(raw)
	if err != nil {
		slog.Warn("discarding api key", "error", &store.ReadError{Key: store.KeyAPIKey, Err: err})
		return "", false
	}
	return v, true
}

// Save stores key after trimming surrounding whitespace.
func (s *Store) Save(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmpty
	}
	sealed, err := s.seal(key)
	if err != nil {
		return fmt.Errorf("seal api key: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Set(ctx, store.KeyAPIKey, sealed); err != nil {
		return fmt.Errorf("persist api key: %w", err)
	}
	return nil
}

// Clear removes the stored key.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Remove(ctx, store.KeyAPIKey)
}

// Mask returns a display form of key that keeps only the last four characters.
func Mask(key string) string {
	r := []rune(key)
	if len(r) <= 4 {
		return strings.Repeat("•", len(r))
	}
	return strings.Repeat("•", 8) + string(r[len(r)-4:])
}

func (s *Store) seal(plain string) (string, error) {
	if s.key == nil {
		return plain, nil
	}
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}
	box := secretbox.Seal(nonce[:], []byte(plain), &nonce, s.key)
	return sealedPrefix + base64.StdEncoding.EncodeToString(box), nil
}

func (s *Store) open(raw string) (string, error) {
	if !strings.HasPrefix(raw, sealedPrefix) {
		if s.key != nil {
			return "", errors.New("value is not sealed")
		}
		return raw, nil
	}
	if s.key == nil {
		return "", errors.New("value is sealed but no secret is configured")
	}
	box, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(raw, sealedPrefix))
	if err != nil {
		return "", err
	}
	if len(box) < 24+secretbox.Overhead {
		return "", errors.New("sealed value too short")
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, s.key)
	if !ok {
		return "", errors.New("cannot open sealed value")
	}
	return string(plain), nil
}

// Sealed reports whether keys are encrypted at rest.
func (s *Store) Sealed() bool {
	return s.key != nil
}
