package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailCipher_RoundTrip(t *testing.T) {
	c := NewEmailCipher("test-secret")

	enc, err := c.Encrypt("alice@x.com")
	require.NoError(t, err)
	require.NotEqual(t, "alice@x.com", enc)

	dec, err := c.Decrypt(enc)
	require.NoError(t, err)
	require.Equal(t, "alice@x.com", dec)
}

func TestEmailCipher_NonDeterministic(t *testing.T) {
	c := NewEmailCipher("test-secret")

	a, err := c.Encrypt("alice@x.com")
	require.NoError(t, err)
	b, err := c.Encrypt("alice@x.com")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "fresh nonce per call")
}

func TestEmailCipher_WrongKeyFails(t *testing.T) {
	enc, err := NewEmailCipher("key-one").Encrypt("alice@x.com")
	require.NoError(t, err)

	_, err = NewEmailCipher("key-two").Decrypt(enc)
	require.Error(t, err)
}

func TestEmailCipher_TamperedInputFails(t *testing.T) {
	c := NewEmailCipher("test-secret")

	_, err := c.Decrypt("not base64 at all!!!")
	require.Error(t, err)

	_, err = c.Decrypt("c2hvcnQ=") // valid base64, shorter than a nonce
	require.Error(t, err)
}

func TestFingerprint_DeterministicAndHex(t *testing.T) {
	a := Fingerprint("alice@x.com")
	b := Fingerprint("alice@x.com")
	other := Fingerprint("bob@x.com")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)
	assert.Len(t, a, 64)
}
