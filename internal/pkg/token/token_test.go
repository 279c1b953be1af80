package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	cases := []struct{ identity, signature string }{
		{"12345", "abcdef"},
		{"s1110234", "00ff"},
		{"a", "b"},
		{"user_name-01", "sig.with.dots"},
	}
	for _, c := range cases {
		got, err := Decode(Encode(c.identity, c.signature))
		require.NoError(t, err)
		assert.Equal(t, Token{Identity: c.identity, Signature: c.signature}, got)
	}
}

func TestDecode_AcceptsUnpadded(t *testing.T) {
	raw := base64.RawStdEncoding.EncodeToString([]byte("866.beef"))
	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "866", got.Identity)
	assert.Equal(t, "beef", got.Signature)
}

func TestDecode_Malformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"%%%not-base64%%%",
		base64.StdEncoding.EncodeToString([]byte("no-delimiter")),
		base64.StdEncoding.EncodeToString([]byte(".sigonly")),
		base64.StdEncoding.EncodeToString([]byte("idonly.")),
	} {
		_, err := Decode(raw)
		assert.ErrorIs(t, err, ErrDecode, "raw=%q", raw)
	}
}

func TestSign_MatchesHMACSHA256Hex(t *testing.T) {
	c := NewCodec("top-secret")
	sig, err := c.Sign("12345")
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte("top-secret"))
	mac.Write([]byte("12345"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), sig)
}

func TestSign_Deterministic(t *testing.T) {
	c := NewCodec("k")
	a, err := c.Sign("12345")
	require.NoError(t, err)
	b, err := c.Sign("12345")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSign_MissingSecret(t *testing.T) {
	_, err := NewCodec("").Sign("12345")
	assert.ErrorIs(t, err, ErrMissingSecret)
	_, err = NewCodec("").Mint("12345")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestSign_RejectsDelimiterInIdentity(t *testing.T) {
	_, err := NewCodec("k").Sign("a.b")
	assert.ErrorIs(t, err, ErrInvalidIdentity)
	_, err = NewCodec("k").Sign("")
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestValidate(t *testing.T) {
	c := NewCodec("k")
	ids := []string{"12345", "12346", "alice", "bob"}
	for _, id := range ids {
		sig, err := c.Sign(id)
		require.NoError(t, err)
		assert.True(t, c.Validate(id, sig))
		for _, other := range ids {
			if other == id {
				continue
			}
			otherSig, err := c.Sign(other)
			require.NoError(t, err)
			assert.False(t, c.Validate(id, otherSig), "%s accepted signature of %s", id, other)
		}
	}
}

func TestValidate_NonHexSignature(t *testing.T) {
	assert.False(t, NewCodec("k").Validate("12345", "zz-not-hex"))
}

func TestValidate_EmptySecretRejectsEverything(t *testing.T) {
	sig, err := NewCodec("k").Sign("12345")
	require.NoError(t, err)
	assert.False(t, NewCodec("").Validate("12345", sig))
}

func TestValidate_KeyRotationInvalidatesOldTokens(t *testing.T) {
	old := NewCodec("old-key")
	rotated := NewCodec("new-key")
	for _, id := range []string{"12345", "alice", "z"} {
		raw, err := old.Mint(id)
		require.NoError(t, err)
		_, err = rotated.Verify(raw)
		assert.ErrorIs(t, err, ErrSignatureInvalid)
	}
}

func TestVerify(t *testing.T) {
	c := NewCodec("k")
	raw, err := c.Mint("12345")
	require.NoError(t, err)

	id, err := c.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "12345", id)

	_, err = c.Verify("garbage")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestVerify_SingleBitFlipInSignature(t *testing.T) {
	c := NewCodec("k")
	sig, err := c.Sign("12345")
	require.NoError(t, err)

	b, err := hex.DecodeString(sig)
	require.NoError(t, err)
	b[0] ^= 0x01
	tampered := Encode("12345", hex.EncodeToString(b))

	_, err = c.Verify(tampered)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerify_ForgedIdentity(t *testing.T) {
	c := NewCodec("k")
	sig, err := c.Sign("12345")
	require.NoError(t, err)

	_, err = c.Verify(Encode("99999", sig))
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}
