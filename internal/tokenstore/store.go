// Package tokenstore keeps bearer tokens in redis, sealed with
// nacl/secretbox so a dump of the cache does not leak sessions.
package tokenstore

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/roomio/roomio/internal/billing/api"
	"github.com/roomio/roomio/internal/shared"
)

// DefaultPrefix namespaces the redis keys of the store.
const DefaultPrefix = "roomio:token:"

// ErrCorrupt reports a stored value that does not open with the key.
var ErrCorrupt = errors.New("tokenstore: sealed token is corrupt")

// Options configures a Store.
type Options struct {
	Secret string
	Prefix string
	TTL    time.Duration
	Logger *slog.Logger
}

// Store saves and loads sealed tokens.
type Store struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
	key    *[32]byte
	logger *slog.Logger
}

// Open prepares a Store, deriving the sealing key from opts.Secret.
func Open(ctx context.Context, rdb redis.Cmdable, opts Options) (*Store, error) {
	if opts.Secret == "" {
		return nil, errors.New("tokenstore: secret must be provided")
	}
	s := &Store{
		rdb:    rdb,
		prefix: opts.Prefix,
		ttl:    opts.TTL,
		logger: opts.Logger,
	}
	if s.prefix == "" {
		s.prefix = DefaultPrefix
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	key, err := s.deriveKey(ctx, opts.Secret)
	if err != nil {
		return nil, err
	}
	s.key = key
	return s, nil
}

func (s *Store) redisKey(name string) string {
	return s.prefix + "entry:" + name
}

// Save seals token under name.
func (s *Store) Save(ctx context.Context, name, token string) error {
	if token == "" {
		return shared.ErrTokenMissing
	}
	sealed, err := seal([]byte(token), s.key)
	if err != nil {
		return fmt.Errorf("tokenstore: seal: %w", err)
	}
	if err := s.rdb.Set(ctx, s.redisKey(name), sealed, s.ttl).Err(); err != nil {
		return fmt.Errorf("tokenstore: save %s: %w", name, err)
	}
	return nil
}

// Load returns the token saved under name, or shared.ErrTokenMissing.
func (s *Store) Load(ctx context.Context, name string) (string, error) {
	b, err := s.rdb.Get(ctx, s.redisKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", shared.ErrTokenMissing
	}
	if err != nil {
		return "", fmt.Errorf("tokenstore: load %s: %w", name, err)
	}
	token, err := open(b, s.key)
	if err != nil {
		s.logger.Warn("token does not open", slog.String("name", name), slog.Any("error", err))
		return "", err
	}
	return string(token), nil
}

// Delete forgets the token saved under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.rdb.Del(ctx, s.redisKey(name)).Err(); err != nil {
		return fmt.Errorf("tokenstore: delete %s: %w", name, err)
	}
	return nil
}

// Source exposes the token saved under name as an api.TokenSource.
func (s *Store) Source(name string) api.TokenSource {
	return source{store: s, name: name}
}

type source struct {
	store *Store
	name  string
}

func (src source) Token(ctx context.Context) (string, error) {
	return src.store.Load(ctx, src.name)
}

func seal(data []byte, key *[32]byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], data, &nonce, key), nil
}

func open(packed []byte, key *[32]byte) ([]byte, error) {
	if len(packed) < 24+secretbox.Overhead {
		return nil, ErrCorrupt
	}
	var nonce [24]byte
	copy(nonce[:], packed[:24])
	out, ok := secretbox.Open(nil, packed[24:], &nonce, key)
	if !ok {
		return nil, ErrCorrupt
	}
	return out, nil
}
