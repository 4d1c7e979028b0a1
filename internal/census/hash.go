package census

import (
	"crypto/md5"
	"encoding/hex"
)

// hashBytes mirrors census_data/cache.py's generate_cache_key, which
// hashes the sorted, JSON-encoded request parameters with MD5 to build
// a short cache key. This is a non-cryptographic dedup key, not a
// security boundary, so MD5 is fine here.
func hashBytes(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}
