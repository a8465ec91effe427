// Package refcode generates human-readable reference numbers such as
// BATCH-20250301-7KQ2ZP and ORD-20250301-A93XDE.
package refcode

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"
)

const (
	alphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	suffixLength = 6
)

// New returns prefix-YYYYMMDD-XXXXXX for the calendar date of at.
func New(prefix string, at time.Time) string {
	var b strings.Builder
	b.Grow(len(prefix) + 16)
	b.WriteString(prefix)
	b.WriteByte('-')
	b.WriteString(at.Format("20060102"))
	b.WriteByte('-')

	limit := big.NewInt(int64(len(alphabet)))
	for range suffixLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand never fails on supported platforms
			panic(err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String()
}
