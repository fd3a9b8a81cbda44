package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// newOrderNumber builds the customer-facing order number: a second-resolution
// timestamp plus a 4-char uppercase hex suffix. Collisions are possible within
// the same second, so callers retry on the unique index.
func newOrderNumber(now time.Time) (string, error) {
	suffix := make([]byte, 2)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generating order number suffix: %w", err)
	}
	return now.Format("20060102150405") + strings.ToUpper(hex.EncodeToString(suffix)), nil
}
