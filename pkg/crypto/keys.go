package crypto

import (
	"bytes"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidKey       = errors.New("invalid key")
	ErrKeyMismatch      = errors.New("public key does not match private key")
	ErrEncryptionFailed = errors.New("encryption failed")
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Key sizes for P-256 web push keys
const (
	PrivateKeySize = 32
	PublicKeySize  = 65 // uncompressed point
	AuthSecretSize = 16
	SaltSize       = 16
)

// GenerateKeyPair generates a new P-256 key pair
func GenerateKeyPair() (*ecdh.PrivateKey, error) {
	return ecdh.P256().GenerateKey(rand.Reader)
}

// GenerateRandom returns size bytes from the system CSPRNG
func GenerateRandom(size int) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// GenerateAuthSecret generates a new 16 byte auth secret
func GenerateAuthSecret() ([]byte, error) {
	return GenerateRandom(AuthSecretSize)
}

// ImportPrivateKey parses a raw 32 byte P-256 scalar
func ImportPrivateKey(raw []byte) (*ecdh.PrivateKey, error) {
	key, err := ecdh.P256().NewPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}

// ImportPublicKey parses an uncompressed P-256 point
func ImportPublicKey(raw []byte) (*ecdh.PublicKey, error) {
	key, err := ecdh.P256().NewPublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}

// ImportKeyPair parses a raw private key and checks that public is its
// uncompressed public point
func ImportKeyPair(private, public []byte) (*ecdh.PrivateKey, error) {
	key, err := ImportPrivateKey(private)
	if err != nil {
		return nil, err
	}
	if _, err := ImportPublicKey(public); err != nil {
		return nil, err
	}
	if !bytes.Equal(key.PublicKey().Bytes(), public) {
		return nil, ErrKeyMismatch
	}
	return key, nil
}

// EncodeKey encodes key material as unpadded URL-safe base64
func EncodeKey(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeKey decodes URL-safe base64, with or without padding
func DecodeKey(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
