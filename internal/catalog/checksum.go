package catalog

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/spaolacci/murmur3"
)

// ChecksumFile computes the hex-encoded 128-bit murmur3 hash of a file.
// The catalog stores it per run so a restored archive can be validated
// cheaply against the indexed original.
func ChecksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := murmur3.New128()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
