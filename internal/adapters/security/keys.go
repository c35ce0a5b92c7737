package security

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKey expands the master key into an independent 32-byte subkey
// bound to the given label. The column-encryption service and the
// sharable-id codec run different nonce regimes, so they must not share
// a raw AES key.
func DeriveKey(master []byte, label string) ([]byte, error) {
	if len(master) == 0 {
		return nil, fmt.Errorf("master key is empty")
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(label)), key); err != nil {
		return nil, fmt.Errorf("failed to derive %q subkey: %w", label, err)
	}
	return key, nil
}
