package translation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// cacheKeyPrefix namespaces translation entries inside the shared cache
// database so they can coexist with other tenants.
const cacheKeyPrefix = "trans:"

// CacheKey derives the deterministic cache key for a request.
//
// The key hashes the text together with the language pair and domain.
// The quality preference is deliberately excluded: all quality variants
// of the same input share a single cache entry, and whichever finishes
// first wins the slot.
func (r Request) CacheKey() string {
	content := fmt.Sprintf("%s:%s:%s:%s", r.Text, r.Source, r.Target, r.Domain)
	sum := sha256.Sum256([]byte(content))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
