// Package token encodes, signs and validates the session token carried in the
// user_session cookie.
//
// A token is base64(identity + "." + hex(HMAC-SHA256(secret, identity))). The same
// Codec instance is used to mint tokens after login and to validate them at the edge,
// so both paths always agree after a secret rotation.
package token

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Delimiter separates identity and signature. It may not appear in an identity.
const Delimiter = "."

var (
	ErrDecode           = errors.New("malformed session token")
	ErrSignatureInvalid = errors.New("session token signature invalid")
	ErrMissingSecret    = errors.New("session secret not configured")
	ErrInvalidIdentity  = errors.New("identity is empty or contains the token delimiter")
)

var signingMethod = jwt.SigningMethodHS256

// Token is the decoded {identity, signature} pair.
type Token struct {
	Identity  string
	Signature string
}

// Encode joins identity and signature and transport-encodes the result.
func Encode(identity, signature string) string {
	return base64.StdEncoding.EncodeToString([]byte(identity + Delimiter + signature))
}

// Decode reverses Encode. Padded and unpadded base64 are both accepted.
func Decode(raw string) (Token, error) {
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		b, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(raw, "="))
		if err != nil {
			return Token{}, ErrDecode
		}
	}
	identity, signature, ok := strings.Cut(string(b), Delimiter)
	if !ok || identity == "" || signature == "" {
		return Token{}, ErrDecode
	}
	return Token{Identity: identity, Signature: signature}, nil
}

// Codec signs and validates identities with a process-wide secret.
type Codec struct {
	secret []byte
}

// NewCodec returns a Codec for secret. An empty secret yields a Codec that refuses
// to sign and rejects every token.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Sign returns the hex-encoded MAC of identity.
func (c *Codec) Sign(identity string) (string, error) {
	if len(c.secret) == 0 {
		return "", ErrMissingSecret
	}
	if identity == "" || strings.Contains(identity, Delimiter) {
		return "", ErrInvalidIdentity
	}
	sig, err := signingMethod.Sign(identity, c.secret)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig), nil
}

// Validate recomputes the MAC of identity and compares it to signature in constant time.
func (c *Codec) Validate(identity, signature string) bool {
	if len(c.secret) == 0 || identity == "" {
		return false
	}
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return signingMethod.Verify(identity, sig, c.secret) == nil
}

// Mint signs identity and returns the encoded token.
func (c *Codec) Mint(identity string) (string, error) {
	sig, err := c.Sign(identity)
	if err != nil {
		return "", err
	}
	return Encode(identity, sig), nil
}

// Verify decodes raw and validates its signature, returning the identity it carries.
func (c *Codec) Verify(raw string) (string, error) {
	t, err := Decode(raw)
	if err != nil {
		return "", err
	}
	if !c.Validate(t.Identity, t.Signature) {
		return "", ErrSignatureInvalid
	}
	return t.Identity, nil
}
