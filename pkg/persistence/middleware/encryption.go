package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/adjuster/pkg/domain"
	"github.com/aretw0/adjuster/pkg/ports"
)

// The sealed envelope is a session whose transcript holds exactly one
// placeholder entry carrying the ciphertext.
const (
	sealedProtocol domain.Protocol = "sealed-snapshot"
	sealedMethod                   = "SEALED_SNAPSHOT"
	sealedParam                    = "__encrypted__"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new snapshots.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.SnapshotPublisher
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals mirrored snapshots
// using AES-GCM. The envelope keeps the step and timestamp readable for
// monitoring; the report, transcript and result ride encrypted.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.SnapshotPublisher) ports.SnapshotPublisher {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Publish(ctx context.Context, session domain.Session) error {
	plainText, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	envelope := domain.Session{
		Step:      session.Step,
		UpdatedAt: session.UpdatedAt,
		Transcript: []domain.Message{{
			Time:     session.UpdatedAt,
			Protocol: sealedProtocol,
			Status:   domain.StatusSent,
			Payload: domain.Payload{
				Method: sealedMethod,
				Params: map[string]any{
					sealedParam: base64.StdEncoding.EncodeToString(ciphertext),
				},
			},
		}},
	}

	return m.next.Publish(ctx, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context) (*domain.Session, error) {
	envelope, err := m.next.Load(ctx)
	if err != nil {
		return nil, err
	}

	// Fail secure: with encryption configured, a plain snapshot in the
	// mirror is treated as an error rather than returned as is.
	encryptedStr, ok := sealedPayload(envelope)
	if !ok {
		return nil, errors.New("mirrored snapshot is not a sealed envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encryptedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(plainText, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted session: %w", err)
	}

	return &session, nil
}

func (m *encryptionMiddleware) Clear(ctx context.Context) error {
	return m.next.Clear(ctx)
}

func sealedPayload(envelope *domain.Session) (string, bool) {
	if len(envelope.Transcript) != 1 {
		return "", false
	}
	entry := envelope.Transcript[0]
	if entry.Payload.Method != sealedMethod {
		return "", false
	}
	encrypted, ok := entry.Payload.Params[sealedParam].(string)
	return encrypted, ok
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
