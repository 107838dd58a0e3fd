package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey builds "<kind>:<sha256>" from the JSON encoding of parts. Layout
// inputs and artifact options are plain data, so the encoding is stable.
// Values JSON cannot encode (NaN, Inf) are rejected before any key is built.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data. The runner uses it for layout
// hashes, which the API also exposes as ETags.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
