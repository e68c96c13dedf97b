package state

import (
	"encoding/hex"
	"log/slog"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// DefaultMaxSessions bounds Sessions when no limit is given.
const DefaultMaxSessions = 256

// Sessions keeps one store per caller token, so callers only ever read the
// state their own calls produced. The least recently used session is dropped
// once the limit is reached.
type Sessions struct {
	svc      Service
	logger   *slog.Logger
	pageSize int
	limit    int

	mu    sync.Mutex
	tick  uint64
	byKey map[string]*session
}

type session struct {
	ops  *Operations
	used uint64
}

// NewSessions builds an empty set of sessions over svc.
func NewSessions(svc Service, logger *slog.Logger, pageSize, limit int) *Sessions {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = DefaultMaxSessions
	}
	return &Sessions{
		svc:      svc,
		logger:   logger,
		pageSize: pageSize,
		limit:    limit,
		byKey:    make(map[string]*session),
	}
}

// For returns the operations of the caller holding token, creating them on
// first use. The empty token names the anonymous session.
func (s *Sessions) For(token string) *Operations {
	key := sessionKey(token)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick++
	if sess, ok := s.byKey[key]; ok {
		sess.used = s.tick
		return sess.ops
	}
	if len(s.byKey) >= s.limit {
		s.evictLocked()
	}
	sess := &session{
		ops:  NewOperations(NewStore(), s.svc, s.logger, s.pageSize),
		used: s.tick,
	}
	s.byKey[key] = sess
	return sess.ops
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byKey)
}

func (s *Sessions) evictLocked() {
	var oldest string
	var oldestUsed uint64
	for key, sess := range s.byKey {
		if oldest == "" || sess.used < oldestUsed {
			oldest, oldestUsed = key, sess.used
		}
	}
	delete(s.byKey, oldest)
	s.logger.Debug("billing session evicted", slog.Int("sessions", len(s.byKey)))
}

// sessionKey hashes the token so raw tokens are never held as map keys.
func sessionKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
