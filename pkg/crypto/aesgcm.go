package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	ErrZeroCiphertext    = errors.New("ciphertext is empty")
	ErrInvalidRecordSize = errors.New("invalid record size")
	ErrInvalidSalt       = errors.New("invalid salt")
	ErrInvalidAuthSecret = errors.New("invalid auth secret")
)

const (
	// DefaultRecordSize is the plaintext record size used when encrypting
	DefaultRecordSize = 4096

	gcmTagSize = 16
	cekSize    = 16
	nonceSize  = 12
	ikmSize    = 32
)

var (
	authInfo  = []byte("Content-Encoding: auth\x00")
	cekInfo   = []byte("Content-Encoding: aesgcm\x00")
	nonceInfo = []byte("Content-Encoding: nonce\x00")
)

// AESGCMBlock is a legacy Web Push "aesgcm" encrypted payload together with
// the parameters carried beside it in the Crypto-Key and Encryption headers
type AESGCMBlock struct {
	SenderPublicKey []byte // uncompressed P-256 point (dh=)
	Salt            []byte // 16 bytes (salt=)
	RecordSize      int    // plaintext record size (rs=), 0 means one record
	Ciphertext      []byte
}

// DecryptAESGCM decrypts block for the receiver holding priv and authSecret
func DecryptAESGCM(priv *ecdh.PrivateKey, authSecret []byte, block *AESGCMBlock) ([]byte, error) {
	if len(block.Ciphertext) == 0 {
		return nil, ErrZeroCiphertext
	}
	if len(block.Salt) != SaltSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidSalt, len(block.Salt), SaltSize)
	}
	if len(authSecret) == 0 {
		return nil, ErrInvalidAuthSecret
	}

	rs := block.RecordSize
	if rs == 0 {
		rs = len(block.Ciphertext)
	}
	if rs <= PaddingHeaderSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRecordSize, rs)
	}

	senderPub, err := ImportPublicKey(block.SenderPublicKey)
	if err != nil {
		return nil, err
	}

	aead, baseNonce, err := deriveRecordCipher(priv, senderPub, priv.PublicKey(), senderPub, authSecret, block.Salt)
	if err != nil {
		return nil, err
	}

	chunk := rs + gcmTagSize
	plaintext := make([]byte, 0, len(block.Ciphertext))
	for seq, off := uint64(0), 0; off < len(block.Ciphertext); seq, off = seq+1, off+chunk {
		end := min(off+chunk, len(block.Ciphertext))
		record, err := aead.Open(nil, recordNonce(baseNonce, seq), block.Ciphertext[off:end], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrDecryptionFailed, seq, err)
		}
		data, err := RemovePadding(record)
		if err != nil {
			return nil, err
		}
		plaintext = append(plaintext, data...)
	}

	return plaintext, nil
}

// EncryptAESGCM encrypts plaintext from senderPriv to receiverPub. rs is the
// plaintext record size including the padding header, DefaultRecordSize
// when zero.
func EncryptAESGCM(senderPriv *ecdh.PrivateKey, receiverPub *ecdh.PublicKey, authSecret, salt, plaintext []byte, rs int) (*AESGCMBlock, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidSalt, len(salt), SaltSize)
	}
	if len(authSecret) == 0 {
		return nil, ErrInvalidAuthSecret
	}
	if rs == 0 {
		rs = DefaultRecordSize
	}
	if rs <= PaddingHeaderSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRecordSize, rs)
	}

	aead, baseNonce, err := deriveRecordCipher(senderPriv, receiverPub, receiverPub, senderPriv.PublicKey(), authSecret, salt)
	if err != nil {
		return nil, err
	}

	maxData := rs - PaddingHeaderSize
	var ciphertext []byte
	seq := uint64(0)
	for off := 0; ; seq++ {
		end := min(off+maxData, len(plaintext))
		record, err := AddPadding(plaintext[off:end], 0)
		if err != nil {
			return nil, err
		}
		ciphertext = aead.Seal(ciphertext, recordNonce(baseNonce, seq), record, nil)
		off = end
		if off >= len(plaintext) {
			break
		}
	}

	return &AESGCMBlock{
		SenderPublicKey: senderPriv.PublicKey().Bytes(),
		Salt:            salt,
		RecordSize:      rs,
		Ciphertext:      ciphertext,
	}, nil
}

// deriveRecordCipher runs the aesgcm key schedule. priv/peer compute the
// shared secret; receiver/sender build the key derivation context.
func deriveRecordCipher(priv *ecdh.PrivateKey, peer, receiver, sender *ecdh.PublicKey, authSecret, salt []byte) (cipher.AEAD, []byte, error) {
	secret, err := priv.ECDH(peer)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	ikm, err := expand(secret, authSecret, authInfo, ikmSize)
	if err != nil {
		return nil, nil, err
	}

	context := keyContext(receiver.Bytes(), sender.Bytes())
	cek, err := expand(ikm, salt, append(append([]byte{}, cekInfo...), context...), cekSize)
	if err != nil {
		return nil, nil, err
	}
	nonce, err := expand(ikm, salt, append(append([]byte{}, nonceInfo...), context...), nonceSize)
	if err != nil {
		return nil, nil, err
	}

	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}
	return aead, nonce, nil
}

// keyContext builds "P-256\0" || len(receiver) || receiver || len(sender) || sender
func keyContext(receiver, sender []byte) []byte {
	ctx := make([]byte, 0, 6+2+len(receiver)+2+len(sender))
	ctx = append(ctx, "P-256\x00"...)
	ctx = binary.BigEndian.AppendUint16(ctx, uint16(len(receiver)))
	ctx = append(ctx, receiver...)
	ctx = binary.BigEndian.AppendUint16(ctx, uint16(len(sender)))
	ctx = append(ctx, sender...)
	return ctx
}

func expand(secret, salt, info []byte, size int) ([]byte, error) {
	out := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, info), out); err != nil {
		return nil, err
	}
	return out, nil
}

// recordNonce XORs the record sequence number into the low bytes of base
func recordNonce(base []byte, seq uint64) []byte {
	nonce := make([]byte, len(base))
	copy(nonce, base)
	var s [8]byte
	binary.BigEndian.PutUint64(s[:], seq)
	for i := range s {
		nonce[len(nonce)-8+i] ^= s[i]
	}
	return nonce
}
