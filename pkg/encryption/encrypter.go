package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// KeyPrefix marks a base64 encoded key in APP_KEY
const KeyPrefix = "base64:"

const ivSize = 12
const tagSize = aes.BlockSize
const versionMagic = byte('G')

var (
	// ErrInvalidKey is returned for keys that are not 16 or 32 bytes
	ErrInvalidKey = errors.New("invalid application key")
	// ErrDecrypt is returned when a payload cannot be opened
	ErrDecrypt = errors.New("the payload is invalid")
)

// Encrypter encrypts values with the application key using AES-GCM
type Encrypter struct {
	key    []byte
	aesgcm cipher.AEAD
}

// New returns an encrypter for a 16 byte (AES-128) or 32 byte (AES-256) key
func New(key []byte) (*Encrypter, error) {
	if len(key) != 16 && len(key) != 32 {
		return nil, fmt.Errorf("%w: key must be 16 or 32 bytes, got %d", ErrInvalidKey, len(key))
	}
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(c)
	if err != nil {
		return nil, err
	}
	return &Encrypter{key: key, aesgcm: aesgcm}, nil
}

// FromAppKey parses an APP_KEY value and returns its encrypter
func FromAppKey(appKey string) (*Encrypter, error) {
	key, err := ParseKey(appKey)
	if err != nil {
		return nil, err
	}
	return New(key)
}

// Cipher names the cipher in use, as "aes-256-gcm"
func (e *Encrypter) Cipher() string { return CipherFor(len(e.key)) }

// KeyLength is the key size in bytes
func (e *Encrypter) KeyLength() int { return len(e.key) }

// CipherFor names the cipher used for a key of n bytes
func CipherFor(n int) string {
	if n == 32 {
		return "aes-256-gcm"
	}
	return "aes-128-gcm"
}

// Encrypt seals plainText and returns the packed payload, base64 encoded
func (e *Encrypter) Encrypt(plainText []byte) (string, error) {
	nonce, err := RandomBytes(ivSize)
	if err != nil {
		return "", err
	}
	sealed := e.aesgcm.Seal(nil, nonce, plainText, nil)
	return base64.StdEncoding.EncodeToString(pack(sealed, nonce)), nil
}

// EncryptString is Encrypt for strings
func (e *Encrypter) EncryptString(value string) (string, error) {
	return e.Encrypt([]byte(value))
}

// Decrypt opens a payload produced by Encrypt
func (e *Encrypter) Decrypt(payload string) ([]byte, error) {
	packed, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(packed) < 1+tagSize+ivSize || packed[0] != versionMagic {
		return nil, ErrDecrypt
	}
	cipherText, iv := unpack(packed)
	plain, err := e.aesgcm.Open(nil, iv, cipherText, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plain, nil
}

// DecryptString is Decrypt for strings
func (e *Encrypter) DecryptString(payload string) (string, error) {
	plain, err := e.Decrypt(payload)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// pack lays out "#{magic}#{tag}#{iv}#{ctext}"
func pack(cipherTextWithTag, iv []byte) []byte {
	tagStart := len(cipherTextWithTag) - tagSize
	tag := cipherTextWithTag[tagStart:]
	cipherText := cipherTextWithTag[:tagStart]

	data := make([]byte, 0, 1+tagSize+ivSize+len(cipherText))
	data = append(data, versionMagic)
	data = append(data, tag...)
	data = append(data, iv[:ivSize]...)
	return append(data, cipherText...)
}

func unpack(packed []byte) ([]byte, []byte) {
	index := 1
	tag := packed[index : index+tagSize]
	index += tagSize
	iv := packed[index : index+ivSize]
	index += ivSize

	cipherText := make([]byte, 0, len(packed)-index+tagSize)
	cipherText = append(cipherText, packed[index:]...)
	return append(cipherText, tag...), iv
}

func RandomBytes(size int) ([]byte, error) {
	value := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, value); err != nil {
		return nil, err
	}
	return value, nil
}

// GenerateKey returns a new random 32 byte key
func GenerateKey() ([]byte, error) {
	return RandomBytes(32)
}

// FormatKey encodes key for APP_KEY
func FormatKey(key []byte) string {
	return KeyPrefix + base64.StdEncoding.EncodeToString(key)
}

// ParseKey decodes an APP_KEY value. Values with the base64: prefix are
// decoded, others are used as raw bytes.
func ParseKey(appKey string) ([]byte, error) {
	appKey = strings.TrimSpace(appKey)
	if appKey == "" {
		return nil, fmt.Errorf("%w: APP_KEY is not set", ErrInvalidKey)
	}
	if !strings.HasPrefix(appKey, KeyPrefix) {
		return []byte(appKey), nil
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(appKey, KeyPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}

var appKeyLine = regexp.MustCompile(`(?m)^APP_KEY=.*$`)

// ReplaceKeyInFile sets APP_KEY in the env file at path, appending the
// line when the file has none and creating the file when missing
func ReplaceKeyInFile(path, appKey string) error {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	line := "APP_KEY=" + appKey
	var out string
	if appKeyLine.Match(content) {
		out = appKeyLine.ReplaceAllLiteralString(string(content), line)
	} else {
		out = string(content)
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += line + "\n"
	}

	if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
