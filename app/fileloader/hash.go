package fileloader

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/minio/highwayhash"
)

// FileHashKey is the fixed key used for content hashing. The hash only
// detects changes between loads; it is not a security boundary.
var FileHashKey = []byte("datasift content hash key\x00\x00\x00\x00\x00\x00\x00")

// hashBlockSize is the read size used while hashing
const hashBlockSize = 64 * 1024

// CalculateFileHash hashes the raw file bytes with HighwayHash-256
func CalculateFileHash(ctx context.Context, filePath string) (string, error) {
	return CalculateFileHashWithKey(ctx, filePath, FileHashKey)
}

// CalculateFileHashWithKey hashes the file in fixed-size blocks so memory
// stays bounded regardless of file size. ctx is checked between blocks.
func CalculateFileHashWithKey(ctx context.Context, filePath string, hashKey []byte) (string, error) {
	if len(hashKey) != 32 {
		return "", fmt.Errorf("hash key must be exactly 32 bytes, got %d", len(hashKey))
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash, err := highwayhash.New(hashKey)
	if err != nil {
		return "", fmt.Errorf("failed to create hash: %w", err)
	}

	buf := make([]byte, hashBlockSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := file.Read(buf)
		if n > 0 {
			hash.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
