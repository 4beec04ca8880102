package common

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/minio/sha256-simd"
)

// Computes the lowercase hex encoded SHA-256 digest of the given file.
func FileHashSha256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed opening file '%s' for hashing: %w", filePath, err)
	}
	defer file.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed hashing file '%s': %w", filePath, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
