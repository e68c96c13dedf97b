package tokenstore

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/argon2"
)

// ErrKeyChanged reports a secret that derives a different key than the one
// the stored tokens were sealed with.
var ErrKeyChanged = errors.New("tokenstore: encryption key changed")

type argon2Params struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"`
	Threads uint8  `json:"threads"`
	KeyLen  uint32 `json:"keylen"`
	Salt    []byte `json:"salt"`
}

type keyParams struct {
	Digest []byte       `json:"digest"`
	Params argon2Params `json:"params"`
}

func newArgon2Params() (argon2Params, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return argon2Params{}, err
	}
	return argon2Params{
		Time:    1,
		Memory:  64 * 1024,
		Threads: 4,
		KeyLen:  32,
		Salt:    salt,
	}, nil
}

func (p argon2Params) derive(secret string) *[32]byte {
	k := argon2.IDKey([]byte(secret), p.Salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	var key [32]byte
	copy(key[:], k)
	clear(k)
	return &key
}

// rawKey accepts a secret given as 64 hex characters.
func rawKey(secret string) (*[32]byte, bool) {
	if len(secret) != hex.EncodedLen(32) {
		return nil, false
	}
	b, err := hex.DecodeString(secret)
	if err != nil {
		return nil, false
	}
	var key [32]byte
	copy(key[:], b)
	return &key, true
}

// deriveKey turns the secret into the sealing key. Passphrases go through
// argon2id; the salt and a digest of the key are kept in redis so later runs
// derive the same key and detect a changed secret.
func (s *Store) deriveKey(ctx context.Context, secret string) (*[32]byte, error) {
	if key, ok := rawKey(secret); ok {
		return key, nil
	}

	paramsKey := s.prefix + "keyparams"
	var kp keyParams
	b, err := s.rdb.Get(ctx, paramsKey).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		params, err := newArgon2Params()
		if err != nil {
			return nil, fmt.Errorf("tokenstore: salt: %w", err)
		}
		key := params.derive(secret)
		digest := sha256.Sum256(key[:])
		kp = keyParams{Digest: digest[:], Params: params}
		encoded, err := json.Marshal(kp)
		if err != nil {
			return nil, err
		}
		created, err := s.rdb.SetNX(ctx, paramsKey, encoded, 0).Result()
		if err != nil {
			return nil, fmt.Errorf("tokenstore: save key params: %w", err)
		}
		if created {
			s.logger.Info("token key params created")
			return key, nil
		}
		// Another process won the race; use its params.
		return s.deriveKey(ctx, secret)
	case err != nil:
		return nil, fmt.Errorf("tokenstore: load key params: %w", err)
	}

	if err := json.Unmarshal(b, &kp); err != nil {
		return nil, fmt.Errorf("tokenstore: decode key params: %w", err)
	}
	key := kp.Params.derive(secret)
	digest := sha256.Sum256(key[:])
	if !bytes.Equal(kp.Digest, digest[:]) {
		return nil, ErrKeyChanged
	}
	return key, nil
}
