package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// separator joins the payload and its signature in a signed value.
const separator = "."

// Sign appends an HMAC-SHA256 authentication tag to an opaque payload.
// The result has the form "payload.signature" with the signature
// encoded as standard base64.
func Sign(value, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(value))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return value + separator + sig
}

// Verify extracts and authenticates the payload of a signed value.
// It splits on the last separator, re-signs the extracted payload, and
// requires the reconstructed string to match the input exactly. A
// payload-embedded separator that shifts the split therefore fails
// verification. Returns ok=false on a missing separator or any
// mismatch; no expiry is checked here, the cookie max-age handles that.
func Verify(signed, secret string) (string, bool) {
	idx := strings.LastIndex(signed, separator)
	if idx < 0 {
		return "", false
	}
	value := signed[:idx]
	expected := Sign(value, secret)
	if !hmac.Equal([]byte(expected), []byte(signed)) {
		return "", false
	}
	return value, true
}
