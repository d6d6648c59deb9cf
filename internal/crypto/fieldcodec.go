// Package crypto encrypts credential material before it reaches durable
// storage. Only a fixed allow-list of field names is ever transformed;
// everything else passes through untouched.
package crypto

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/fernet/fernet-go"
)

// sensitiveFields is the closed set of field names whose values are
// encrypted at rest. Adding a name here changes what future writes persist;
// it never rewrites existing rows.
var sensitiveFields = map[string]struct{}{
	"access_token":  {},
	"refresh_token": {},
	"token_secret":  {},
	"password":      {},
	"api_key":       {},
	"secret_key":    {},
	"client_secret": {},
}

// IsSensitive reports whether values under name are encrypted at rest.
func IsSensitive(name string) bool {
	_, ok := sensitiveFields[name]
	return ok
}

// FieldCodec encrypts and decrypts the sensitive subset of a string field
// map. Decryption is fail-open: a value that does not verify is returned
// as stored, so one corrupt credential cannot take the whole record down.
type FieldCodec struct {
	key *fernet.Key
}

// New builds a codec from a base64 fernet key.
func New(encodedKey string) (*FieldCodec, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decoding encryption key: %w", err)
	}
	return &FieldCodec{key: key}, nil
}

// NewGenerated builds a codec over a fresh random key. Anything encrypted
// with it is unreadable after restart, which is acceptable only outside
// production.
func NewGenerated() (*FieldCodec, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return nil, fmt.Errorf("generating encryption key: %w", err)
	}
	return &FieldCodec{key: &key}, nil
}

// Encrypt returns the fernet token for plaintext.
func (c *FieldCodec) Encrypt(plaintext string) (string, error) {
	tok, err := fernet.EncryptAndSign([]byte(plaintext), c.key)
	if err != nil {
		return "", fmt.Errorf("encrypting field: %w", err)
	}
	return string(tok), nil
}

// Decrypt returns the plaintext and true, or the token unchanged and false
// when it does not verify under the configured key.
func (c *FieldCodec) Decrypt(token string) (string, bool) {
	msg := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{c.key})
	if msg == nil {
		return token, false
	}
	return string(msg), true
}

// EncodeFields returns a copy of fields with every sensitive value
// encrypted. The input map is not modified.
func (c *FieldCodec) EncodeFields(fields map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for name, value := range fields {
		if !IsSensitive(name) {
			out[name] = value
			continue
		}
		enc, err := c.Encrypt(value)
		if err != nil {
			return nil, fmt.Errorf("encoding field %s: %w", name, err)
		}
		out[name] = enc
	}
	return out, nil
}

// DecodeFields returns a copy of fields with every sensitive value
// decrypted. Values that fail verification are kept as stored and logged,
// never dropped.
func (c *FieldCodec) DecodeFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for name, value := range fields {
		if !IsSensitive(name) {
			out[name] = value
			continue
		}
		plain, ok := c.Decrypt(value)
		if !ok {
			slog.Warn("field did not verify under the configured key, keeping stored value", "field", name)
		}
		out[name] = plain
	}
	return out
}

var (
	defaultCodec *FieldCodec
	defaultErr   error
	once         sync.Once
)

// Init sets up the process-wide codec. With an empty key a random one is
// generated and a warning is logged. Subsequent calls are no-ops.
func Init(encodedKey string) error {
	once.Do(func() {
		if encodedKey == "" {
			slog.Warn("no encryption key configured, generating an ephemeral key")
			defaultCodec, defaultErr = NewGenerated()
			return
		}
		defaultCodec, defaultErr = New(encodedKey)
	})
	return defaultErr
}

// Default returns the codec installed by Init.
func Default() *FieldCodec {
	return defaultCodec
}
