// Package random generates tokens and storage keys.
package random

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var alphabetLen = big.NewInt(int64(len(alphabet)))

// Seq returns n random alphanumeric characters read from crypto/rand.
func Seq(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b)
}

// StorageKey names a stored blob independently of its display name.
func StorageKey() string {
	return uuid.NewString()
}
