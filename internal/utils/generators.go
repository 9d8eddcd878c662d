package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// NewID returns a random UUID used as a record primary key.
func NewID() string {
	return uuid.NewString()
}

// GenerateOrderReference returns a short human readable order reference.
func GenerateOrderReference(now time.Time) string {
	randomNum, err := rand.Int(rand.Reader, big.NewInt(999999))
	if err != nil {
		return fmt.Sprintf("ORD-%d", now.UnixNano())
	}
	return fmt.Sprintf("ORD-%s-%06d", now.UTC().Format("20060102"), randomNum.Int64())
}
