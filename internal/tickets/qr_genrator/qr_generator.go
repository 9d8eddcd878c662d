package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"ms-campus/internal/models"

	"github.com/skip2/go-qrcode"
)

type QRGenerator struct {
	secret []byte
}

func NewQRGenerator(secret string) *QRGenerator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &QRGenerator{secret: hashed[:]}
}

// GenerateEncryptedQR seals the claims and renders them as a PNG QR code. It
// returns the image and the sealed payload encoded in it.
func (q *QRGenerator) GenerateEncryptedQR(claims models.TicketClaims) ([]byte, string, error) {
	payload, err := q.EncryptPayload(claims)
	if err != nil {
		return nil, "", err
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, payload, nil
}

func (q *QRGenerator) EncryptPayload(claims models.TicketClaims) (string, error) {
	data, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	return encryptAES(data, q.secret)
}

// DecryptPayload opens a payload produced by EncryptPayload. Tampered or
// foreign payloads return models.ErrInvalidQR.
func (q *QRGenerator) DecryptPayload(payload string) (*models.TicketClaims, error) {
	data, err := decryptAES(payload, q.secret)
	if err != nil {
		return nil, models.ErrInvalidQR
	}
	var claims models.TicketClaims
	if err := json.Unmarshal(data, &claims); err != nil || claims.TicketID == "" {
		return nil, models.ErrInvalidQR
	}
	return &claims, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, data, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func decryptAES(payload string, key []byte) ([]byte, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("payload too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
