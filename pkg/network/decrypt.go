package network

import (
	"fmt"

	"github.com/ZentaChain/fcm-receiver/pkg/crypto"
	"github.com/ZentaChain/fcm-receiver/pkg/mcs"
)

// App data keys carrying the encryption parameters. The relay spells the
// key header "crypo-key".
const (
	CryptoKeyHeader  = "crypo-key"
	EncryptionHeader = "encryption"

	cryptoKeyPrefixLen  = len("dh=")
	encryptionPrefixLen = len("salt=")
)

// decrypt recovers the plaintext of a data message
func (c *Client) decrypt(msg *mcs.DataMessageStanza) ([]byte, error) {
	fail := func(kind DecryptErrorKind, err error) error {
		return &DecryptError{Kind: kind, PersistentID: msg.PersistentID, Err: err}
	}

	cryptoKey, err := msg.AppDataValue(CryptoKeyHeader)
	if err != nil {
		return nil, fail(DecryptMissingData, err)
	}
	encryption, err := msg.AppDataValue(EncryptionHeader)
	if err != nil {
		return nil, fail(DecryptMissingData, err)
	}

	dh, err := decodeHeader(cryptoKey, cryptoKeyPrefixLen)
	if err != nil {
		return nil, fail(DecryptBase64, fmt.Errorf("%s: %w", CryptoKeyHeader, err))
	}
	salt, err := decodeHeader(encryption, encryptionPrefixLen)
	if err != nil {
		return nil, fail(DecryptBase64, fmt.Errorf("%s: %w", EncryptionHeader, err))
	}

	plaintext, err := crypto.DecryptAESGCM(c.privateKey, c.authSecret, &crypto.AESGCMBlock{
		SenderPublicKey: dh,
		Salt:            salt,
		RecordSize:      len(msg.RawData),
		Ciphertext:      msg.RawData,
	})
	if err != nil {
		return nil, fail(DecryptCrypto, err)
	}
	return plaintext, nil
}

// decodeHeader drops a fixed-length "name=" prefix and base64url-decodes
// the rest
func decodeHeader(value string, prefixLen int) ([]byte, error) {
	if len(value) < prefixLen {
		return nil, fmt.Errorf("value %q shorter than its prefix", value)
	}
	return crypto.DecodeKey(value[prefixLen:])
}
