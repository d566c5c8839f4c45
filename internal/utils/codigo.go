package utils

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// NuevoCodigo returns a 6-digit numeric recovery code generated from
// cryptographically secure random data. Leading zeros are preserved.
func NuevoCodigo() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint64(buf[:]) % 1000000
	return fmt.Sprintf("%06d", n), nil
}
