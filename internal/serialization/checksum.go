package serialization

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeChecksum returns the hex SHA-256 of data.
func ComputeChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ValidateChecksum compares a computed checksum with the stored one.
// Files without a stored checksum are accepted.
func ValidateChecksum(computed, stored string) error {
	if stored != "" && computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}
