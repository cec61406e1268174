package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"io"

	cfb8 "github.com/Tnze/go-mc/net/CFB8"
)

// NewDecryptReader wraps r to decrypt with AES/CFB8, using the shared
// secret as both key and IV.
func NewDecryptReader(r io.Reader, secret []byte) (io.Reader, error) {
	cfb, err := newCFB8FromSecret(secret, true)
	if err != nil {
		return nil, err
	}
	return &cipher.StreamReader{S: cfb, R: r}, nil
}

// NewEncryptWriter wraps w to encrypt with AES/CFB8, using the shared
// secret as both key and IV.
func NewEncryptWriter(w io.Writer, secret []byte) (io.Writer, error) {
	cfb, err := newCFB8FromSecret(secret, false)
	if err != nil {
		return nil, err
	}
	return &cipher.StreamWriter{S: cfb, W: w}, nil
}

func newCFB8FromSecret(secret []byte, decrypt bool) (cipher.Stream, error) {
	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, err
	}
	if decrypt {
		return cfb8.NewCFB8Decrypt(block, secret), nil
	}
	return cfb8.NewCFB8Encrypt(block, secret), nil
}
