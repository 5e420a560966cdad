// Package hash signs and verifies the email carried by one click unsubscribe links.
package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"github.com/pkg/errors"
)

// ComputeHmac256 computes HMAC-SHA256 of message and encodes it as standard base64.
func ComputeHmac256(message, secret string) (string, error) {
	h := hmac.New(sha256.New, []byte(secret))
	if _, err := h.Write([]byte(message)); err != nil {
		return "", errors.Wrap(err, "hmac.Write")
	}

	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// Verify reports whether signature is the HMAC of message under secret.
func Verify(message, signature, secret string) (bool, error) {
	expected, err := ComputeHmac256(message, secret)
	if err != nil {
		return false, err
	}

	return hmac.Equal([]byte(expected), []byte(signature)), nil
}
