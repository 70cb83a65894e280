// Package cipher recovers the plaintext payload from the card service's
// encrypted transaction blob.
//
// A blob is the 16-character AES key followed by base64 ciphertext. The
// service encrypts with AES-128 in ECB mode and PKCS#7 padding; ECB is kept
// only for interoperability with that server.
package cipher

import (
	"bytes"
	"crypto/aes"
	"encoding/base64"
	"fmt"
	"unicode/utf8"
)

// KeyChars is the number of leading characters of a blob that form the key.
const KeyChars = 16

// SplitBlob separates the key characters from the base64 body.
func SplitBlob(blob string) (key []byte, body string, err error) {
	n := 0
	for i := range blob {
		if n == KeyChars {
			return []byte(blob[:i]), blob[i:], nil
		}
		n++
	}
	if n == KeyChars {
		return []byte(blob), "", nil
	}
	return nil, "", &CipherError{Reason: fmt.Sprintf("blob has %d characters, need at least %d for the key", n, KeyChars)}
}

// Decrypt returns the UTF-8 plaintext carried by blob.
func Decrypt(blob string) (string, error) {
	key, body, err := SplitBlob(blob)
	if err != nil {
		return "", err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return "", &DecodeError{Stage: "base64", Err: err}
	}

	plain, err := decryptECB(key, ciphertext)
	if err != nil {
		return "", err
	}

	plain, err = unpad(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}

	if !utf8.Valid(plain) {
		return "", &DecodeError{Stage: "utf-8"}
	}
	return string(plain), nil
}

// Encrypt builds a blob from a 16-byte key and plaintext. It is the exact
// inverse of Decrypt.
func Encrypt(key string, plaintext []byte) (string, error) {
	block, err := aes.NewCipher([]byte(key))
	if err != nil || len(key) != KeyChars {
		return "", &CipherError{Reason: fmt.Sprintf("key must be %d bytes, got %d", KeyChars, len(key))}
	}

	padded := pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += aes.BlockSize {
		block.Encrypt(out[i:i+aes.BlockSize], padded[i:i+aes.BlockSize])
	}
	return key + base64.StdEncoding.EncodeToString(out), nil
}

func decryptECB(key, ciphertext []byte) ([]byte, error) {
	if len(key) != KeyChars {
		return nil, &CipherError{Reason: fmt.Sprintf("key is %d bytes, want %d", len(key), KeyChars)}
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, &CipherError{Reason: err.Error()}
	}
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, &CipherError{Reason: fmt.Sprintf("ciphertext length %d is not a multiple of %d", len(ciphertext), aes.BlockSize)}
	}

	out := make([]byte, len(ciphertext))
	for i := 0; i < len(ciphertext); i += aes.BlockSize {
		block.Decrypt(out[i:i+aes.BlockSize], ciphertext[i:i+aes.BlockSize])
	}
	return out, nil
}

func pad(data []byte, size int) []byte {
	n := size - len(data)%size
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, size int) ([]byte, error) {
	if len(data) == 0 {
		return nil, &PaddingError{Reason: "empty plaintext"}
	}
	n := int(data[len(data)-1])
	if n == 0 || n > size || n > len(data) {
		return nil, &PaddingError{Reason: fmt.Sprintf("invalid pad length %d", n)}
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, &PaddingError{Reason: "inconsistent pad bytes"}
		}
	}
	return data[:len(data)-n], nil
}
