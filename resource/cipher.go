package resource

import "github.com/alexcoman/arestor/model"

// Cipher protects credential payloads. The record layer treats its output as
// an opaque string leaf and never inspects it; the concrete implementation
// lives with the request layer.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SealPassword encrypts the plaintext and stores the resulting blob in the
// credential's password field.
func SealPassword(record *model.Record, cipher Cipher, plaintext string) error {
	blob, err := cipher.Encrypt(plaintext)
	if err != nil {
		return err
	}
	return record.Set("password", blob)
}

// RevealPassword decrypts the credential's password field. An absent field
// yields an empty string without calling the cipher.
func RevealPassword(record *model.Record, cipher Cipher) (string, error) {
	blob, _ := record.Get("password").(string)
	if blob == "" {
		return "", nil
	}
	return cipher.Decrypt(blob)
}
