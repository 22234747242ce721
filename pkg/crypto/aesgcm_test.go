package crypto

import (
	"bytes"
	"errors"
	"testing"
)

// Legacy aesgcm test vector, decrypts to "I am the walrus"
const (
	vectorPrivateKey = "9FWl15_QUQAWDaD3k3l50ZBZQJ4au27F1V4F0uLSD_M"
	vectorPublicKey  = "BCEkBjzL8Z3C-oi2Q7oE5t2Np-p7osjGLg93qUP0wvqRT21EEWyf0cQDQcakQMqz4hQKYOQ3il2nNZct4HgAUQU"
	vectorAuth       = "R29vIGdvbyBnJyBqb29iIQ"
	vectorSalt       = "lngarbyKfMoi9Z75xYXmkg"
	vectorDH         = "BNoRDbb84JGm8g5Z5CFxurSqsXWJ11ItfXEWYVLE85Y7CYkDjXsIEc4aqxYaQ1G8BqkXCJ6DPpDrWtdWj_mugHU"
	vectorCiphertext = "6nqAQUME8hNqw5J3kl8cpVVJylXKYqZOeseZG8UueKpA"
)

func mustDecode(t *testing.T, s string) []byte {
	t.Helper()
	b, err := DecodeKey(s)
	if err != nil {
		t.Fatalf("DecodeKey(%q) error = %v", s, err)
	}
	return b
}

func vectorBlock(t *testing.T) *AESGCMBlock {
	return &AESGCMBlock{
		SenderPublicKey: mustDecode(t, vectorDH),
		Salt:            mustDecode(t, vectorSalt),
		Ciphertext:      mustDecode(t, vectorCiphertext),
	}
}

func TestDecryptAESGCMVector(t *testing.T) {
	priv, err := ImportKeyPair(mustDecode(t, vectorPrivateKey), mustDecode(t, vectorPublicKey))
	if err != nil {
		t.Fatalf("ImportKeyPair() error = %v", err)
	}

	plaintext, err := DecryptAESGCM(priv, mustDecode(t, vectorAuth), vectorBlock(t))
	if err != nil {
		t.Fatalf("DecryptAESGCM() error = %v", err)
	}
	if string(plaintext) != "I am the walrus" {
		t.Errorf("DecryptAESGCM() = %q, want %q", plaintext, "I am the walrus")
	}
}

func TestDecryptAESGCMFailures(t *testing.T) {
	priv, err := ImportPrivateKey(mustDecode(t, vectorPrivateKey))
	if err != nil {
		t.Fatalf("ImportPrivateKey() error = %v", err)
	}
	auth := mustDecode(t, vectorAuth)

	tests := []struct {
		name    string
		mutate  func(b *AESGCMBlock)
		auth    []byte
		wantErr error
	}{
		{
			name:    "tampered ciphertext",
			mutate:  func(b *AESGCMBlock) { b.Ciphertext[0] ^= 0xff },
			wantErr: ErrDecryptionFailed,
		},
		{
			name:    "wrong auth secret",
			auth:    []byte("0123456789abcdef"),
			wantErr: ErrDecryptionFailed,
		},
		{
			name:    "empty ciphertext",
			mutate:  func(b *AESGCMBlock) { b.Ciphertext = nil },
			wantErr: ErrZeroCiphertext,
		},
		{
			name:    "short salt",
			mutate:  func(b *AESGCMBlock) { b.Salt = b.Salt[:8] },
			wantErr: ErrInvalidSalt,
		},
		{
			name:    "bad sender key",
			mutate:  func(b *AESGCMBlock) { b.SenderPublicKey = b.SenderPublicKey[:33] },
			wantErr: ErrInvalidKey,
		},
		{
			name:    "record size too small",
			mutate:  func(b *AESGCMBlock) { b.RecordSize = 2 },
			wantErr: ErrInvalidRecordSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := vectorBlock(t)
			if tt.mutate != nil {
				tt.mutate(block)
			}
			a := auth
			if tt.auth != nil {
				a = tt.auth
			}

			_, err := DecryptAESGCM(priv, a, block)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecryptAESGCM() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncryptDecryptAESGCM(t *testing.T) {
	receiver, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}
	sender, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}
	auth, err := GenerateAuthSecret()
	if err != nil {
		t.Fatalf("GenerateAuthSecret() error = %v", err)
	}
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		t.Fatalf("GenerateRandom() error = %v", err)
	}

	tests := []struct {
		name      string
		plaintext []byte
		rs        int
	}{
		{name: "short message", plaintext: []byte(`{"notification":{"title":"hi"}}`)},
		{name: "empty message", plaintext: []byte{}},
		{name: "multiple records", plaintext: bytes.Repeat([]byte("abcdefgh"), 40), rs: 32},
		{name: "exact record boundary", plaintext: bytes.Repeat([]byte("z"), 30), rs: 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := EncryptAESGCM(sender, receiver.PublicKey(), auth, salt, tt.plaintext, tt.rs)
			if err != nil {
				t.Fatalf("EncryptAESGCM() error = %v", err)
			}
			if !bytes.Equal(block.SenderPublicKey, sender.PublicKey().Bytes()) {
				t.Error("block does not carry the sender public key")
			}

			got, err := DecryptAESGCM(receiver, auth, block)
			if err != nil {
				t.Fatalf("DecryptAESGCM() error = %v", err)
			}
			if !bytes.Equal(got, tt.plaintext) {
				t.Errorf("DecryptAESGCM() = %q, want %q", got, tt.plaintext)
			}
			if got == nil {
				t.Error("DecryptAESGCM() returned a nil payload")
			}
		})
	}
}
