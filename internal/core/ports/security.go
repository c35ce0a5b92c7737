package ports

// SecurityPort defines the interface for encrypting and decrypting
// sensitive data at rest. Implementations may be swapped without
// changing the business logic that uses them.
type SecurityPort interface {
	// Encrypt takes a plaintext and returns a secure, encrypted ciphertext.
	Encrypt(plaintext []byte) (ciphertext []byte, err error)

	// Decrypt takes a ciphertext and returns the original plaintext.
	Decrypt(ciphertext []byte) (plaintext []byte, err error)
}

// IDCodec derives sharable ids: an obfuscated, reversible rendering of
// an account id that is safe to expose in client-facing contexts.
// Derivation is deterministic, so the same account id always maps to
// the same sharable id.
type IDCodec interface {
	EncryptID(id string) (string, error)
	DecryptID(sharable string) (string, error)
}
