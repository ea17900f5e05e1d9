package hashutil

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

type HashAlgo string

const (
	HashAlgoSHA1 HashAlgo = "sha1"
	HashAlgoMD5  HashAlgo = "md5"
)

// HashBytes returns the hash of bytes as a hex string using the specified algorithm.
// Supported algorithms: "sha1" and "md5". Both are used only for cache-file
// naming, never for integrity.
func HashBytes(data []byte, algo HashAlgo) (string, error) {
	switch algo {
	case HashAlgoSHA1:
		return hashBytesSha1(data), nil
	case HashAlgoMD5:
		return hashBytesMd5(data), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
}

// ShortHash returns the first n hex characters of the hash.
// n larger than the digest length returns the whole digest.
func ShortHash(data []byte, algo HashAlgo, n int) (string, error) {
	h, err := HashBytes(data, algo)
	if err != nil {
		return "", err
	}
	if n <= 0 || n >= len(h) {
		return h, nil
	}
	return h[:n], nil
}

func hashBytesSha1(data []byte) string {
	hash := sha1.Sum(data)
	return hex.EncodeToString(hash[:])
}

func hashBytesMd5(data []byte) string {
	hash := md5.Sum(data)
	return hex.EncodeToString(hash[:])
}
