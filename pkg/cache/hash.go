package cache

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Hash computes the BLAKE3-256 digest of data as a 64-character hex string.
func Hash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashFile streams the file at path through BLAKE3-256 and returns the hex
// digest. Large sources are never read into memory at once.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
