package expense

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/goliatone/go-errors"
)

// singleUseTokenBytes is the entropy of verification and reset tokens.
// 32 bytes gives 256 bits, collisions are negligible so we never check
// uniqueness against storage.
const singleUseTokenBytes = 32

// DefaultSingleUseTokenTTL is the validity horizon for verification and
// reset tokens.
const DefaultSingleUseTokenTTL = time.Hour

// GenerateSingleUseToken returns an opaque random token value.
func GenerateSingleUseToken() (string, error) {
	buf := make([]byte, singleUseTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to read random bytes for token")
	}
	return hex.EncodeToString(buf), nil
}

// TokenExpiration computes the expiry for a token issued now. A zero ttl
// falls back to the default one hour horizon.
func TokenExpiration(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = DefaultSingleUseTokenTTL
	}
	return now.Add(ttl)
}

// singleUseTokenMatches reports whether a candidate matches the stored
// pair and the pair is unexpired. A nil pair never matches.
func singleUseTokenMatches(candidate string, stored *string, expires *time.Time, now time.Time) bool {
	if candidate == "" || stored == nil || expires == nil {
		return false
	}
	if *stored != candidate {
		return false
	}
	return expires.After(now)
}
