// Package encryption encrypts values with the application key.
//
// APP_KEY holds a 16 or 32 byte key, usually base64 encoded with a
// "base64:" prefix. The key size selects AES-128-GCM or AES-256-GCM.
// Payloads are packed as magic byte 'G', tag, nonce and ciphertext and
// then base64 encoded:
//
//	e, err := encryption.FromAppKey(os.Getenv("APP_KEY"))
//	payload, err := e.EncryptString("Test encryption")
//	plain, err := e.DecryptString(payload)
package encryption
