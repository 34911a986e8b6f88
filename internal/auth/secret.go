// Package auth implements the shared-secret verifier and the access keys of the remote backend.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (tuned for server-side hashing).
const (
	argonTime    uint32 = 3         // iterations
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32
	saltLen             = 16
)

var b64 = base64.RawStdEncoding

// Verifier checks a presented credential.
type Verifier interface {
	Verify(secret string) bool
}

// Argon2Verifier compares secrets against one configured argon2id hash.
type Argon2Verifier struct {
	salt []byte
	hash []byte
}

// NewArgon2Verifier parses an encoded "salt$hash" value produced by HashSecret.
func NewArgon2Verifier(encoded string) (*Argon2Verifier, error) {
	saltPart, hashPart, ok := strings.Cut(strings.TrimSpace(encoded), "$")
	if !ok {
		return nil, errors.New("secret hash: want salt$hash")
	}
	salt, err := b64.DecodeString(saltPart)
	if err != nil || len(salt) == 0 {
		return nil, errors.New("secret hash: bad salt")
	}
	hash, err := b64.DecodeString(hashPart)
	if err != nil || len(hash) != int(argonKeyLen) {
		return nil, errors.New("secret hash: bad hash")
	}
	return &Argon2Verifier{salt: salt, hash: hash}, nil
}

// Verify reports whether secret matches in constant time.
func (v *Argon2Verifier) Verify(secret string) bool {
	if secret == "" {
		return false
	}
	got := hashSecret([]byte(secret), v.salt)
	return subtle.ConstantTimeCompare(got, v.hash) == 1
}

// HashSecret returns the "salt$hash" encoding of secret with a fresh salt.
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("empty secret")
	}
	salt, err := randBytes(saltLen)
	if err != nil {
		return "", err
	}
	return b64.EncodeToString(salt) + "$" + b64.EncodeToString(hashSecret([]byte(secret), salt)), nil
}

func hashSecret(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

func randBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}
