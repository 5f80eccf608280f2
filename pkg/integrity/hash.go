package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// DigestLength is the length of a hex-encoded SHA-256 digest.
const DigestLength = sha256.Size * 2

// Bytes returns the SHA-256 digest of b.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Reader hashes everything read from r and reports the number of bytes consumed.
func Reader(r io.Reader) (sum string, size int64, err error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// IsDigest reports whether s looks like a lowercase hex SHA-256 digest.
func IsDigest(s string) bool {
	if len(s) != DigestLength {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
