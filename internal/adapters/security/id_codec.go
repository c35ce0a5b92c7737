package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"horizon/internal/core/ports"
)

const nonceLabel = "horizon.sharable-id.nonce"

// idCodec derives sharable ids via AES-GCM with a synthetic nonce: the
// nonce is an HMAC of the plaintext, so encryption is deterministic and
// the same account id always yields the same sharable id. The random-nonce
// aesService cannot be reused here for exactly that reason.
type idCodec struct {
	gcm    cipher.AEAD
	macKey []byte
	log    zerolog.Logger
}

var _ ports.IDCodec = (*idCodec)(nil)

// NewIDCodec creates a sharable-id codec from a 16- or 32-byte key.
func NewIDCodec(key []byte, baseLogger *zerolog.Logger) (ports.IDCodec, error) {
	if len(key) != 16 && len(key) != 32 {
		return nil, errors.New("key must be 16 or 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("could not create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("could not create GCM: %w", err)
	}

	return &idCodec{
		gcm:    gcm,
		macKey: key,
		log:    baseLogger.With().Str("component", "id_codec").Logger(),
	}, nil
}

// EncryptID produces the sharable rendering of an account id.
func (c *idCodec) EncryptID(id string) (string, error) {
	if id == "" {
		return "", errors.New("id must not be empty")
	}

	nonce := c.nonceFor(id)
	sealed := c.gcm.Seal(nonce, nonce, []byte(id), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// DecryptID reverses EncryptID.
func (c *idCodec) DecryptID(sharable string) (string, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(sharable)
	if err != nil {
		return "", fmt.Errorf("could not decode sharable id: %w", err)
	}

	nonceSize := c.gcm.NonceSize()
	if len(sealed) < nonceSize {
		return "", errors.New("sharable id is too short")
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	id, err := c.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to decrypt sharable id (tampered or corrupt?)")
		return "", fmt.Errorf("could not decrypt sharable id: %w", err)
	}

	return string(id), nil
}

// nonceFor derives the synthetic nonce for a plaintext id.
func (c *idCodec) nonceFor(id string) []byte {
	mac := hmac.New(sha256.New, c.macKey)
	mac.Write([]byte(nonceLabel))
	mac.Write([]byte(id))
	return mac.Sum(nil)[:c.gcm.NonceSize()]
}
