package cipher

import (
	"errors"
	"fmt"
)

// ErrDecryption matches every error returned by Decrypt.
var ErrDecryption = errors.New("decryption failed")

// DecodeError reports a blob whose body is not valid base64, or whose
// plaintext is not valid UTF-8.
type DecodeError struct {
	Stage string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("decode %s failed", e.Stage)
	}
	return fmt.Sprintf("decode %s: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecryption }

// CipherError reports a bad key or a ciphertext that is not a whole number
// of blocks.
type CipherError struct {
	Reason string
}

func (e *CipherError) Error() string {
	return "cipher: " + e.Reason
}

func (e *CipherError) Is(target error) bool { return target == ErrDecryption }

// PaddingError reports invalid PKCS#7 padding after decryption.
type PaddingError struct {
	Reason string
}

func (e *PaddingError) Error() string {
	return "padding: " + e.Reason
}

func (e *PaddingError) Is(target error) bool { return target == ErrDecryption }
