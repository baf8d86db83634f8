package upload

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// digestPrefix is the only digest scheme the service produces or accepts.
// Declared checksums and stored digests both carry it.
const digestPrefix = "sha256:"

func newDigester() hash.Hash {
	return sha256.New()
}

// digestOf renders the accumulated hash in the canonical sha256:<hex> form.
func digestOf(h hash.Hash) string {
	return digestPrefix + hex.EncodeToString(h.Sum(nil))
}
