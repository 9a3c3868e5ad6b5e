package adapter

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"

	"github.com/pkg/errors"
)

// Sign computes the API-Sign header for a private request:
// base64(HMAC-SHA512(secret, path || SHA256(body))).
// body must be the exact bytes that go on the wire.
func Sign(path, body string, secret []byte) string {
	digest := sha256.Sum256([]byte(body))

	message := make([]byte, 0, len(path)+len(digest))
	message = append(message, path...)
	message = append(message, digest[:]...)

	mac := hmac.New(sha512.New, secret)
	mac.Write(message)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// DecodeSecret decodes an API secret. An empty or malformed secret is an error.
func DecodeSecret(secret string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("api secret is empty")
	}
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, errors.Wrap(err, "api secret is not valid base64")
	}
	return key, nil
}

// Signer holds a decoded secret so it is decoded once per process
type Signer struct {
	key []byte
}

// NewSigner creates a signer from a base64 secret
func NewSigner(secret string) (*Signer, error) {
	key, err := DecodeSecret(secret)
	if err != nil {
		return nil, err
	}
	return &Signer{key: key}, nil
}

// Sign signs path and body with the held secret
func (s *Signer) Sign(path, body string) string {
	return Sign(path, body, s.key)
}
