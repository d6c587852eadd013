package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// DocumentKey derives the document identity key for one open: a stable hash
// of the absolute path and last-modified time. The document server uses it to
// distinguish document versions, so a fresh key after an external modification
// makes the editor refetch instead of reusing its cached copy. The key is
// never persisted, only recomputed.
func DocumentKey(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", path, info.ModTime().UnixNano())))
	return hex.EncodeToString(sum[:])[:20], nil
}
