// Package credentials holds the identity bundle a push receiver needs: its
// P-256 key material and the GCM/FCM registrations obtained at bootstrap.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZentaChain/fcm-receiver/pkg/crypto"
)

var (
	ErrIncomplete = errors.New("credentials incomplete")
)

// Credentials is the full bundle persisted between runs
type Credentials struct {
	Keys Keys           `json:"keys"`
	GCM  GCMCredentials `json:"gcm"`
	FCM  FCMCredentials `json:"fcm"`
}

// Keys is the text form of the key material (unpadded URL-safe base64)
type Keys struct {
	PrivateKey string `json:"privateKey"`
	PublicKey  string `json:"publicKey"`
	AuthSecret string `json:"authSecret"`
}

// RawKeys is the decoded form of Keys
type RawKeys struct {
	PrivateKey []byte
	PublicKey  []byte
	AuthSecret []byte
}

// GCMCredentials identifies the device to the relay
type GCMCredentials struct {
	Token         string `json:"token"`
	AndroidID     string `json:"androidId"`
	SecurityToken string `json:"securityToken"`
	AppID         string `json:"appId"`
}

// FCMCredentials is the result of the FCM subscription
type FCMCredentials struct {
	Token   string `json:"token"`
	PushSet string `json:"pushSet"`
}

// DecodeError reports which key field failed to decode
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("credentials: decode %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NewKeys generates a fresh P-256 key pair and auth secret
func NewKeys() (Keys, error) {
	priv, err := crypto.GenerateKeyPair()
	if err != nil {
		return Keys{}, fmt.Errorf("generate key pair: %w", err)
	}
	auth, err := crypto.GenerateAuthSecret()
	if err != nil {
		return Keys{}, fmt.Errorf("generate auth secret: %w", err)
	}

	return RawKeys{
		PrivateKey: priv.Bytes(),
		PublicKey:  priv.PublicKey().Bytes(),
		AuthSecret: auth,
	}.Encode(), nil
}

// Decode converts the text keys into raw bytes
func (k Keys) Decode() (RawKeys, error) {
	var raw RawKeys
	fields := []struct {
		name string
		in   string
		out  *[]byte
	}{
		{"privateKey", k.PrivateKey, &raw.PrivateKey},
		{"publicKey", k.PublicKey, &raw.PublicKey},
		{"authSecret", k.AuthSecret, &raw.AuthSecret},
	}

	for _, f := range fields {
		b, err := crypto.DecodeKey(f.in)
		if err != nil {
			return RawKeys{}, &DecodeError{Field: f.name, Err: err}
		}
		*f.out = b
	}
	return raw, nil
}

// Encode converts raw keys into their text form
func (r RawKeys) Encode() Keys {
	return Keys{
		PrivateKey: crypto.EncodeKey(r.PrivateKey),
		PublicKey:  crypto.EncodeKey(r.PublicKey),
		AuthSecret: crypto.EncodeKey(r.AuthSecret),
	}
}

// Validate checks that every field the receiver needs is present
func (c *Credentials) Validate() error {
	missing := func(field string) error {
		return fmt.Errorf("%w: missing %s", ErrIncomplete, field)
	}
	switch {
	case c.Keys.PrivateKey == "":
		return missing("keys.privateKey")
	case c.Keys.PublicKey == "":
		return missing("keys.publicKey")
	case c.Keys.AuthSecret == "":
		return missing("keys.authSecret")
	case c.GCM.AndroidID == "":
		return missing("gcm.androidId")
	case c.GCM.SecurityToken == "":
		return missing("gcm.securityToken")
	}
	return nil
}

// Load reads a JSON credentials file
func Load(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return &creds, nil
}

// Save writes the credentials as indented JSON, readable by the owner only
func Save(path string, creds *Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create credentials dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}
