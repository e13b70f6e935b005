package source

import (
	"encoding/hex"

	"github.com/minio/highwayhash"
)

var key = []byte("0123456789ABCDEF0123456789ABCDEF")

// Hash returns the hex encoded 256-bit content hash
func Hash(data []byte) string {
	sum := highwayhash.Sum(data, key)
	return hex.EncodeToString(sum[:])
}
