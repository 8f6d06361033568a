// Package keystore resolves API credentials to caller addresses. The HTTP
// layer authenticates callers here; whether the resolved address holds any
// authority over a wallet is decided by the domain.
package keystore

import (
	"errors"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrKeyNotFound   = errors.New("api key not found")
	ErrBadCredential = errors.New("invalid api credential")
)

type entry struct {
	secretHash []byte
	caller     common.Address
}

// StaticKeyStore is a simple in-memory keystore.
type StaticKeyStore struct {
	keys map[string]entry
}

// NewFromEnv builds a keystore from environment variables.
// API_KEYS format: "keyId:bcryptHash:callerAddress,keyId2:...". The bcrypt
// hash never contains ':' so a three-way split is unambiguous.
func NewFromEnv() (*StaticKeyStore, error) {
	keys := make(map[string]entry)
	raw := os.Getenv("API_KEYS")
	if raw != "" {
		pairs := strings.Split(raw, ",")
		for _, p := range pairs {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			parts := strings.SplitN(p, ":", 3)
			if len(parts) != 3 {
				return nil, errors.New("invalid API_KEYS format")
			}
			if !common.IsHexAddress(parts[2]) {
				return nil, errors.New("invalid caller address in API_KEYS")
			}
			keys[parts[0]] = entry{
				secretHash: []byte(parts[1]),
				caller:     common.HexToAddress(parts[2]),
			}
		}
	}
	return &StaticKeyStore{keys: keys}, nil
}

// NewStatic builds a keystore from explicit entries. Secrets are hashed here.
func NewStatic(entries map[string]struct {
	Secret string
	Caller common.Address
}) (*StaticKeyStore, error) {
	keys := make(map[string]entry, len(entries))
	for keyID, e := range entries {
		hash, err := bcrypt.GenerateFromPassword([]byte(e.Secret), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		keys[keyID] = entry{secretHash: hash, caller: e.Caller}
	}
	return &StaticKeyStore{keys: keys}, nil
}

// Resolve checks the secret against the stored hash and returns the caller
// address bound to the key.
func (s *StaticKeyStore) Resolve(keyID, secret string) (common.Address, error) {
	e, ok := s.keys[keyID]
	if !ok {
		return common.Address{}, ErrKeyNotFound
	}
	if err := bcrypt.CompareHashAndPassword(e.secretHash, []byte(secret)); err != nil {
		return common.Address{}, ErrBadCredential
	}
	return e.caller, nil
}
