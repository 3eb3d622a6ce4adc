package paymentsheet

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	canonicaljson "github.com/gibson042/canonicaljson-go"
)

// IdempotencyKey derives a deterministic key for a confirmation request by
// hashing its canonical JSON encoding. Retrying the same submission yields
// the same key, so the payments API deduplicates instead of double
// charging.
func IdempotencyKey(req ConfirmRequest) (string, error) {
	payload, err := canonicaljson.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("idempotency: encode request: %w", err)
	}
	sum := sha256.Sum256(payload)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}
