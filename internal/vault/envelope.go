package vault

import (
	"encoding/base64"
	"fmt"
	"time"
)

// Envelope is the self-describing JSON wrapper of a sealed payload.
type Envelope struct {
	Encrypted bool   `json:"encrypted"`
	Algorithm string `json:"algorithm"`
	Data      string `json:"data"`      // base64(salt ‖ iv ‖ ciphertext)
	Timestamp string `json:"timestamp"` // ISO-8601
}

func NewEnvelope(password string, plaintext []byte, now time.Time) (Envelope, error) {
	blob, err := Seal(password, plaintext)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Encrypted: true,
		Algorithm: Algorithm,
		Data:      base64.StdEncoding.EncodeToString(blob),
		Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}, nil
}

// Open decodes Data and decrypts it with password. Malformed base64 is
// reported as ErrDecrypt since the payload is unusable either way.
func (e Envelope) Open(password string) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(e.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base64: %v", ErrDecrypt, err)
	}
	return Open(password, blob)
}
