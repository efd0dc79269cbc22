package encryption

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(n int) []byte {
	key := make([]byte, n)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestNew(t *testing.T) {
	e, err := New(testKey(32))
	require.NoError(t, err)
	assert.Equal(t, "aes-256-gcm", e.Cipher())
	assert.Equal(t, 32, e.KeyLength())

	e, err = New(testKey(16))
	require.NoError(t, err)
	assert.Equal(t, "aes-128-gcm", e.Cipher())

	_, err = New(testKey(24))
	assert.True(t, errors.Is(err, ErrInvalidKey))
}

func TestEncryptDecrypt(t *testing.T) {
	e, err := New(testKey(32))
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"simple message", []byte("Test encryption")},
		{"empty plaintext", []byte("")},
		{"long message", bytes.Repeat([]byte("x"), 10000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := e.Encrypt(tt.plaintext)
			require.NoError(t, err)

			raw, err := base64.StdEncoding.DecodeString(payload)
			require.NoError(t, err)
			assert.Equal(t, byte('G'), raw[0])
			assert.Len(t, raw, 1+tagSize+ivSize+len(tt.plaintext))

			plain, err := e.Decrypt(payload)
			require.NoError(t, err)
			assert.Equal(t, string(tt.plaintext), string(plain))
		})
	}

	a, _ := e.EncryptString("same")
	b, _ := e.EncryptString("same")
	assert.NotEqual(t, a, b)
}

func TestDecrypt_Invalid(t *testing.T) {
	e, err := New(testKey(32))
	require.NoError(t, err)
	other, err := New(testKey(16))
	require.NoError(t, err)

	payload, err := e.EncryptString("secret")
	require.NoError(t, err)

	_, err = other.DecryptString(payload)
	assert.True(t, errors.Is(err, ErrDecrypt))

	_, err = e.DecryptString("not base64!")
	assert.True(t, errors.Is(err, ErrDecrypt))

	_, err = e.DecryptString(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.True(t, errors.Is(err, ErrDecrypt))

	raw, _ := base64.StdEncoding.DecodeString(payload)
	raw[len(raw)-1] ^= 0xff
	_, err = e.DecryptString(base64.StdEncoding.EncodeToString(raw))
	assert.True(t, errors.Is(err, ErrDecrypt))
}

func TestKeyFormatting(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)

	formatted := FormatKey(key)
	assert.True(t, strings.HasPrefix(formatted, "base64:"))

	parsed, err := ParseKey(formatted)
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	raw, err := ParseKey("0123456789abcdef")
	require.NoError(t, err)
	assert.Len(t, raw, 16)

	_, err = ParseKey("")
	assert.True(t, errors.Is(err, ErrInvalidKey))

	_, err = ParseKey("base64:%%%")
	assert.True(t, errors.Is(err, ErrInvalidKey))

	e, err := FromAppKey(formatted)
	require.NoError(t, err)
	assert.Equal(t, "aes-256-gcm", e.Cipher())
}

func TestReplaceKeyInFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_NAME=MediaMind\nAPP_KEY=old\nAPP_DEBUG=true\n"), 0o644))
	require.NoError(t, ReplaceKeyInFile(path, "base64:new"))
	content, _ := os.ReadFile(path)
	assert.Equal(t, "APP_NAME=MediaMind\nAPP_KEY=base64:new\nAPP_DEBUG=true\n", string(content))

	path = filepath.Join(dir, "no-key.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_NAME=MediaMind"), 0o644))
	require.NoError(t, ReplaceKeyInFile(path, "k"))
	content, _ = os.ReadFile(path)
	assert.Equal(t, "APP_NAME=MediaMind\nAPP_KEY=k\n", string(content))

	path = filepath.Join(dir, "missing.env")
	require.NoError(t, ReplaceKeyInFile(path, "k"))
	content, _ = os.ReadFile(path)
	assert.Equal(t, "APP_KEY=k\n", string(content))
}
